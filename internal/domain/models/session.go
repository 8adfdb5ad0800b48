package models

import "net/http"

// Session is the outcome of one session refresh: who the requester is and
// which cookies the response must carry. A mutation with MaxAge < 0 deletes the cookie.
type Session struct {
	Authenticated bool
	User          *User
	Mutations     []*http.Cookie
}
