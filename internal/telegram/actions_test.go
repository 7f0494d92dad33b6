package telegram

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_EncodeParseRoundTrip(t *testing.T) {
	id := uuid.New()

	withID := []ActionKind{
		ActionShop, ActionCategory, ActionProduct, ActionOrder,
		ActionAddCategory, ActionAddProduct, ActionWizardCategory,
	}
	for _, kind := range withID {
		data := Action{Kind: kind, ID: id}.encode()
		got, err := parseAction(data)
		require.NoError(t, err, kind)
		assert.Equal(t, Action{Kind: kind, ID: id}, got)
	}

	bare := []ActionKind{
		ActionShopList, ActionWizardNewCategory, ActionWizardDone, ActionCancel,
	}
	for _, kind := range bare {
		data := Action{Kind: kind}.encode()
		got, err := parseAction(data)
		require.NoError(t, err, kind)
		assert.Equal(t, Action{Kind: kind}, got)
	}
}

func TestAction_EncodeFitsCallbackDataLimit(t *testing.T) {
	// Telegram rejects callback data over 64 bytes.
	for kind := range kindsWithID {
		data := Action{Kind: kind, ID: uuid.New()}.encode()
		assert.LessOrEqual(t, len(data), 64, kind)
	}
}

func TestParseAction_Errors(t *testing.T) {
	cases := []string{
		"",
		"launch:" + uuid.New().String(), // unknown kind
		"shop",                          // missing id
		"shop:not-a-uuid",
		"cancel:" + uuid.New().String(), // payload on a bare kind
	}
	for _, data := range cases {
		_, err := parseAction(data)
		assert.Error(t, err, data)
	}
}
