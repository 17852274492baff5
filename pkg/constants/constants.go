package constants

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	AccessKey ContextKey = "access"
	LoggerKey ContextKey = "logger"
)
