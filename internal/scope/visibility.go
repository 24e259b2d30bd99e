package scope

import (
	"fmt"
	"strings"
)

// Visibility controls which communes can see a content item.
type Visibility string

const (
	VisibilityLocal  Visibility = "local"  // one commune, via CommuneID
	VisibilityGlobal Visibility = "global" // every commune
	VisibilityCustom Visibility = "custom" // explicit audience set
)

// ParseVisibility validates a visibility literal. Invalid input is rejected,
// never silently coerced to local.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "local":
		return VisibilityLocal, nil
	case "global":
		return VisibilityGlobal, nil
	case "custom":
		return VisibilityCustom, nil
	default:
		return "", fmt.Errorf("unknown visibility %q: %w", s, ErrInvalidInput)
	}
}
