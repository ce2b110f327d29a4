package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every record kept in an owned collection.
type Entity interface {
	GetID() string
}

// NewID returns "<unix millis>-<random suffix>". Unique, not cryptographic.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// JSONMap represents a generic JSON object
type JSONMap map[string]interface{}
