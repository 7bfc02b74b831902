package handler

type ContextKey string

var (
	AnalystIDCtx     ContextKey = "analystID"
	TransactionIDCtx ContextKey = "transactionID"
)
