package protocol

import "strings"

// Command strings carried in KindCommand envelopes. Responses that carry a
// detail use a fixed prefix followed by a terse reason; nothing beyond these
// enumerated strings is ever sent to a peer.
const (
	CmdAuthRequest     = "AUTH_REQUEST"
	CmdLogin           = "LOGIN"
	CmdRegister        = "REGISTER"
	CmdLoginRequest    = "LOGIN_REQUEST"
	CmdRegisterRequest = "REGISTER_REQUEST"
	CmdAuthSuccess     = "AUTH_SUCCESS"
	CmdUserInfo        = "USER_INFO"
	CmdQuit            = "QUIT"

	PrefixAuthRetry       = "AUTH_RETRY:"
	PrefixAuthFailed      = "AUTH_FAILED:"
	PrefixAuthError       = "AUTH_ERROR:"
	PrefixChangePassword  = "CHANGE_PASSWORD:"
	PrefixPasswordChanged = "PASSWORD_CHANGED:"
	PrefixPasswordError   = "PASSWORD_ERROR:"
	PrefixUserInfo        = "USER_INFO:"
	PrefixUnknownCommand  = "UNKNOWN_COMMAND:"
)

// ChangePasswordArgs splits a CHANGE_PASSWORD payload into old and new
// passwords. The split is on the first '|'.
func ChangePasswordArgs(cmd string) (oldPass, newPass string, ok bool) {
	rest, found := strings.CutPrefix(cmd, PrefixChangePassword)
	if !found {
		return "", "", false
	}
	oldPass, newPass, ok = strings.Cut(rest, "|")
	return oldPass, newPass, ok
}
