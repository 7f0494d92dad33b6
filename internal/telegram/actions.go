package telegram

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ActionKind tags a decoded callback action.
type ActionKind string

const (
	ActionShopList ActionKind = "shops"    // show all active shops
	ActionShop     ActionKind = "shop"     // show a shop's category menu
	ActionCategory ActionKind = "category" // show a category's products
	ActionProduct  ActionKind = "product"  // show product details
	ActionOrder    ActionKind = "order"    // order a product

	ActionAddCategory ActionKind = "addcat"  // start new-category wizard for a shop
	ActionAddProduct  ActionKind = "addprod" // start new-product wizard for a shop

	ActionWizardCategory    ActionKind = "wizcat"    // pick an existing category in the product wizard
	ActionWizardNewCategory ActionKind = "wizcatnew" // enter the nested create-category sub-flow
	ActionWizardDone        ActionKind = "wizdone"   // terminate the image-collection step
	ActionCancel            ActionKind = "cancel"    // cancel the active wizard
)

// Action is a callback button decoded into a tagged value. Callback
// data carries at most one entity ID: Telegram limits callback data to
// 64 bytes, and two UUIDs do not fit, so related entities are resolved
// from the referenced record instead.
type Action struct {
	Kind ActionKind
	ID   uuid.UUID
}

// kindsWithID lists action kinds whose payload is a single UUID.
var kindsWithID = map[ActionKind]bool{
	ActionShop:           true,
	ActionCategory:       true,
	ActionProduct:        true,
	ActionOrder:          true,
	ActionAddCategory:    true,
	ActionAddProduct:     true,
	ActionWizardCategory: true,
}

// kindsBare lists action kinds that carry no payload.
var kindsBare = map[ActionKind]bool{
	ActionShopList:          true,
	ActionWizardNewCategory: true,
	ActionWizardDone:        true,
	ActionCancel:            true,
}

// encode renders the action as callback data.
func (a Action) encode() string {
	if kindsWithID[a.Kind] {
		return fmt.Sprintf("%s:%s", a.Kind, a.ID)
	}
	return string(a.Kind)
}

// parseAction decodes callback data once, at the boundary. Everything
// past this point works with typed values instead of string tags.
func parseAction(data string) (Action, error) {
	kind, rest, hasID := strings.Cut(data, ":")
	k := ActionKind(kind)

	switch {
	case kindsBare[k]:
		if hasID {
			return Action{}, fmt.Errorf("action %q takes no payload", kind)
		}
		return Action{Kind: k}, nil

	case kindsWithID[k]:
		if !hasID {
			return Action{}, fmt.Errorf("action %q requires an id", kind)
		}
		id, err := uuid.Parse(rest)
		if err != nil {
			return Action{}, fmt.Errorf("action %q: bad id %q: %w", kind, rest, err)
		}
		return Action{Kind: k, ID: id}, nil

	default:
		return Action{}, fmt.Errorf("unknown action %q", data)
	}
}
