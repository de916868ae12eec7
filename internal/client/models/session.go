// Package models holds the client-side data kept between CLI invocations.
package models

import "time"

// Session is the last token obtained from one server.
type Session struct {
	Server  string
	Account string
	Token   string
	SavedAt time.Time
}
