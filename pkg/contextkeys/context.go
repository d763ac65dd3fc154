package contextkeys

type contextKey string

// DBContextKey holds the *gorm.DB transaction bound to a context.
const DBContextKey = contextKey("db")

// Keys set on gin.Context by the auth middleware.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	ClaimsKey = "claims"
)
