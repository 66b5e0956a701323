package valueobjects

import (
	"fmt"

	"github.com/google/uuid"
)

// NewProjectID returns a random project identifier
func NewProjectID() string {
	return uuid.New().String()
}

// NewNodeID returns a time-ordered node identifier of the form node_<uuidv7>.
// UUIDv7 carries a millisecond timestamp, so ids sort by creation time and
// two nodes created in the same millisecond still differ.
func NewNodeID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "node_" + id.String()
}

// EdgeIDFor derives the edge identifier for a parent/child pair
func EdgeIDFor(source, target string) string {
	return fmt.Sprintf("edge_%s-%s", source, target)
}
