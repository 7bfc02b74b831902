package utils

import (
	"math/rand"
	"time"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

var skills = []string{"SIEM", "EDR", "PHISHING", "NETWORK", "MALWARE", "CLOUD"}

// GenerateRandomAnalyst 交替分配早晚班，保证两个班次人数接近
func GenerateRandomAnalyst(i int, regionID *int64) *domain.Analyst {
	fullName := GenerateRandomChineseName()

	shift := domain.ShiftMorning
	if i%2 == 1 {
		shift = domain.ShiftEvening
	}

	n := rand.Intn(3) + 1
	analystSkills := make([]string, 0, n)
	for _, idx := range rand.Perm(len(skills))[:n] {
		analystSkills = append(analystSkills, skills[idx])
	}

	return &domain.Analyst{
		Username:  GenerateUsernameFromChineseName(fullName),
		FullName:  fullName,
		ShiftType: shift,
		RegionID:  regionID,
		Skills:    analystSkills,
		IsActive:  true,
	}
}

var absenceKinds = []domain.AbsenceKind{domain.AbsenceVacation, domain.AbsenceSickLeave, domain.AbsenceDayOff}

// GenerateRandomAbsence 在 from 之后 60 天内随机生成一段 1~5 天的已批准请假
func GenerateRandomAbsence(analystID int64, from time.Time) *domain.AbsenceWindow {
	start := domain.DateOnly(from).AddDate(0, 0, rand.Intn(60))
	return &domain.AbsenceWindow{
		AnalystID:  analystID,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, rand.Intn(5)),
		Kind:       absenceKinds[rand.Intn(len(absenceKinds))],
		IsApproved: true,
	}
}

// GenerateRandomHolidays 在 from 之后 90 天内随机挑选 n 个不重复的工作日作为节假日
func GenerateRandomHolidays(from time.Time, n int) []*domain.Constraint {
	n = min(n, 60) // 90 天里只有 64 个左右的工作日
	holidays := make([]*domain.Constraint, 0, n)
	seen := make(map[time.Time]bool)
	for len(holidays) < n {
		d := domain.DateOnly(from).AddDate(0, 0, rand.Intn(90))
		if domain.IsWeekend(d) || seen[d] {
			continue
		}
		seen[d] = true
		holidays = append(holidays, &domain.Constraint{
			Type:        domain.ConstraintHoliday,
			StartDate:   d,
			EndDate:     d,
			IsActive:    true,
			Description: "随机生成的节假日",
		})
	}
	return holidays
}
