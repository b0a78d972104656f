package widget

import (
	"time"

	"github.com/longkey1/shopchat/internal/shopchat/catalog"
	"github.com/longkey1/shopchat/internal/shopchat/chatapi"
)

// Role identifies who a transcript entry is attributed to.
type Role string

const (
	RoleUser  Role = "user"
	RoleBot   Role = "bot"
	RoleError Role = "error"
)

// Message is one transcript entry. Messages are never changed after they
// are appended; the loading placeholder is removed and replaced instead.
type Message struct {
	ID        string            `json:"id"`
	Role      Role              `json:"role"`
	Text      string            `json:"text"`
	Products  []catalog.Product `json:"products,omitempty"`
	Loading   bool              `json:"loading,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// HasProducts reports whether a product grid should be drawn.
func (m Message) HasProducts() bool {
	return len(m.Products) > 0
}

// Exchange is a completed question/answer pair.
type Exchange struct {
	Question string        `json:"question"`
	Response chatapi.Reply `json:"response"`
}
