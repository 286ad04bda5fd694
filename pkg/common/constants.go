package common

const (
	RedisKeySession     = "pulse:session:%s"
	RedisKeySessionLock = "pulse:session:%s:lock"

	SessionCookieName = "pulse_session"
)
