package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompOffFlow(t *testing.T) {
	env := newTestEnv(t)

	_, res := env.do(t, http.MethodPost, "/comp-off/earn", map[string]any{
		"analystID": 1,
		"date":      "2025-01-04",
		"reason":    "WEEKEND_WORK",
		"days":      1,
	})
	require.True(t, res.Success, res.Message)

	var txn domain.CompOffTransaction
	require.NoError(t, json.Unmarshal(res.Data, &txn))
	assert.Equal(t, domain.CompOffEarned, txn.Type)
	assert.NotZero(t, txn.ID)

	_, res = env.do(t, http.MethodPost, "/comp-off/use", map[string]any{
		"analystID": 1,
		"date":      "2025-01-08",
		"days":      2,
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "调休余额不足")

	_, res = env.do(t, http.MethodPost, "/comp-off/use", map[string]any{
		"analystID": 1,
		"date":      "2025-01-08",
		"days":      0.5,
	})
	require.True(t, res.Success, res.Message)

	_, res = env.do(t, http.MethodGet, "/comp-off/1/balance", nil)
	require.True(t, res.Success, res.Message)

	var balance domain.CompOffBalance
	require.NoError(t, json.Unmarshal(res.Data, &balance))
	assert.Equal(t, 1.0, balance.TotalEarned)
	assert.Equal(t, 0.5, balance.TotalUsed)
	assert.Equal(t, 0.5, balance.AvailableBalance)

	_, res = env.do(t, http.MethodGet, "/comp-off/1/transactions", nil)
	require.True(t, res.Success, res.Message)

	var txns []domain.CompOffTransaction
	require.NoError(t, json.Unmarshal(res.Data, &txns))
	assert.Len(t, txns, 2)

	_, res = env.do(t, http.MethodDelete, "/comp-off/transactions/1", nil)
	assert.True(t, res.Success, res.Message)

	_, res = env.do(t, http.MethodDelete, "/comp-off/transactions/1", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "调休记录不存在", res.Message)
}

func TestCompOffValidation(t *testing.T) {
	env := newTestEnv(t)

	_, res := env.do(t, http.MethodPost, "/comp-off/earn", map[string]any{
		"analystID": 1,
		"date":      "2025-01-06",
		"reason":    "WEEKEND_WORK",
		"days":      1,
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "只有周末或节假日上班才能获得调休")

	_, res = env.do(t, http.MethodPost, "/comp-off/earn", map[string]any{
		"analystID": 1,
		"date":      "2025-01-04",
		"reason":    "BIRTHDAY",
		"days":      1,
	})
	assert.False(t, res.Success)

	_, res = env.do(t, http.MethodGet, "/comp-off/abc/balance", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "分析师ID无效", res.Message)

	_, res = env.do(t, http.MethodDelete, "/comp-off/transactions/0", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "调休记录ID无效", res.Message)
}

func TestEarnOvertimeOncePerWeek(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{
		"analystID": 2,
		"date":      "2025-01-07",
		"reason":    "OVERTIME",
		"days":      0.5,
	}

	_, res := env.do(t, http.MethodPost, "/comp-off/earn", body)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "调休记录成功", res.Message)

	body["date"] = "2025-01-09"
	_, res = env.do(t, http.MethodPost, "/comp-off/earn", body)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "本周已记录加班调休", res.Message)
	assert.Len(t, env.compOffStore.txns[2], 1)
}
