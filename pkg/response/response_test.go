package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOKT_Envelope(t *testing.T) {
	b, err := json.Marshal(OKT(map[string]int{"processed": 2}))
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true,"data":{"processed":2}}`, string(b))
}

func TestErrorT_DefaultMessageAndFields(t *testing.T) {
	b, err := json.Marshal(ErrorT(APIErrorCodeInvalidInput, "", map[string]string{"months": "must be at least 1"}))
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":false,"error":{"code":"invalid_input","message":"invalid input","fields":{"months":"must be at least 1"}}}`, string(b))

	b, err = json.Marshal(ErrorT(APIErrorCodeNotFound, "seat not found", nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":false,"error":{"code":"not_found","message":"seat not found"}}`, string(b))
}
