//go:build !integration

package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: hello\nwelcome_user: hello %s\nreordered: \"%[2]s by %[1]s\""))
	require.NoError(t, err)

	t.Run("should translate a simple key", func(t *testing.T) {
		assert.Equal(t, "hello", translator.T("greeting"))
	})

	t.Run("should return key if not found", func(t *testing.T) {
		assert.Equal(t, "nonexistent_key", translator.T("nonexistent_key"))
		assert.False(t, translator.Has("nonexistent_key"))
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		assert.Equal(t, "hello Ali", translator.T("welcome_user", "Ali"))
	})

	t.Run("indexed verbs ignore unused arguments", func(t *testing.T) {
		assert.Equal(t, "b by a", translator.T("reordered", "a", "b", "c", 4))
	})
}

func TestNewTranslator_FallsBackToDefault(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("a: A\nb: B")},
		"locales/fa.yaml": {Data: []byte("a: alef")},
	}
	tr, err := NewTranslator(fsys, "fa")
	require.NoError(t, err)
	assert.Equal(t, "fa", tr.Language())
	assert.Equal(t, "alef", tr.T("a"))
	assert.Equal(t, "B", tr.T("b"))

	_, err = NewTranslator(fsys, "de")
	assert.Error(t, err)
}

func TestEmbeddedLocale_CoversErrorKeys(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, DefaultLanguage)
	require.NoError(t, err)

	keys := []string{
		"err.internal", "err.session_lost", "err.step_mismatch", "err.username_exists",
		"err.user_not_found", "err.core_sync_failed", "err.bulk_in_progress",
		"err.no_inbound_selected", "err.protocol_disabled", "err.template_not_found",
		"menu.title", "sys.info", "card.account", "board.title",
		"notify.account_created", "notify.core_restarted",
	}
	for _, k := range keys {
		assert.True(t, tr.Has(k), k)
	}
	assert.Equal(t, "Account bob not found.", tr.T("err.user_not_found", "bob"))
}
