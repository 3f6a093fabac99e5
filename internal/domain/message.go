package domain

import (
	"fmt"
	"time"
)

// ChatMessage is one unit of user-visible traffic.
//
// An empty To means broadcast; a non-empty To is a directed private message
// whose Content is the base64 form of an RSA ciphertext produced with the
// recipient's public key. Broadcast content is plaintext.
type ChatMessage struct {
	From      Username  `cbor:"from"`
	To        Username  `cbor:"to,omitempty"`
	Content   string    `cbor:"content"`
	Timestamp time.Time `cbor:"timestamp"`
}

// NewBroadcast builds a broadcast message stamped with the current time.
func NewBroadcast(from Username, content string) ChatMessage {
	return ChatMessage{From: from, Content: content, Timestamp: time.Now()}
}

// NewDirect builds a directed message stamped with the current time.
func NewDirect(from, to Username, content string) ChatMessage {
	return ChatMessage{From: from, To: to, Content: content, Timestamp: time.Now()}
}

// NewNotice builds a system notice addressed to everyone.
func NewNotice(content string) ChatMessage {
	return NewBroadcast(SystemUser, content)
}

// IsDirect reports whether the message has an explicit recipient.
func (m ChatMessage) IsDirect() bool { return !m.To.IsEmpty() }

// IsNotice reports whether the message is a server-generated notice.
func (m ChatMessage) IsNotice() bool { return m.From.Equal(SystemUser) }

// UserInfo is the read-only projection of a stored credential. It carries
// no secret material and is safe to show to the account holder or an admin.
type UserInfo struct {
	Username    Username
	CreatedAt   time.Time
	LastLoginAt time.Time
	Active      bool
}

// Summary renders the projection as a single display line.
func (i UserInfo) Summary() string {
	last := "never"
	if !i.LastLoginAt.IsZero() {
		last = i.LastLoginAt.Format(time.DateTime)
	}
	state := "active"
	if !i.Active {
		state = "deactivated"
	}
	return fmt.Sprintf("user=%s created=%s last_login=%s status=%s",
		i.Username, i.CreatedAt.Format(time.DateTime), last, state)
}
