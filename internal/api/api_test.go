package api

import (
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/accounts/internal/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
)

func strp(s string) *string { return &s }

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, "json", c.Name())
}

func TestUpdateProfileRequest_PresenceSurvivesWire(t *testing.T) {
	var req UpdateProfileRequest
	require.NoError(t, Codec{}.Unmarshal([]byte(`{"original_password":"pw","name":"bob","email":null}`), &req))

	assert.True(t, req.Name.IsSet())
	email, ok := req.Email.Get()
	assert.True(t, ok)
	assert.Nil(t, email, "null clears")
	assert.False(t, req.Phone.IsSet())

	out, err := Codec{}.Marshal(UpdateProfileRequest{OriginalPassword: "pw", Age: optional.Of[*int](nil)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"original_password":"pw","age":null}`, string(out))
}

func TestUserView_UIDAsString(t *testing.T) {
	out, err := json.Marshal(UserView{UID: 7310772261572808704, Name: "alice"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"uid":"7310772261572808704"`)
}

func TestRegisterRequest_Validate(t *testing.T) {
	age := -1
	cases := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"ok", RegisterRequest{Name: "alice", Password: "pw", Email: strp("a@example.com")}, false},
		{"missing name", RegisterRequest{Password: "pw"}, true},
		{"missing password", RegisterRequest{Name: "alice"}, true},
		{"bad email", RegisterRequest{Name: "alice", Password: "pw", Email: strp("nope")}, true},
		{"empty email", RegisterRequest{Name: "alice", Password: "pw", Email: strp("")}, true},
		{"negative age", RegisterRequest{Name: "alice", Password: "pw", Age: &age}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateProfileRequest_Validate(t *testing.T) {
	assert.Error(t, UpdateProfileRequest{}.Validate(), "original password required")
	assert.NoError(t, UpdateProfileRequest{OriginalPassword: "pw"}.Validate())
	assert.NoError(t, UpdateProfileRequest{OriginalPassword: "pw", Email: optional.Of[*string](nil)}.Validate())
	assert.Error(t, UpdateProfileRequest{OriginalPassword: "pw", Name: optional.Of("")}.Validate())
	assert.Error(t, UpdateProfileRequest{OriginalPassword: "pw", Email: optional.Of(strp("bad"))}.Validate())
	assert.Error(t, UpdateProfileRequest{OriginalPassword: "pw", Password: optional.Of("")}.Validate())
}

func TestGetUserRequest_Validate(t *testing.T) {
	assert.NoError(t, GetUserRequest{UID: "123"}.Validate())
	assert.Error(t, GetUserRequest{UID: "abc"}.Validate())
	assert.Error(t, GetUserRequest{}.Validate())
}

func TestBearerFromMetadata(t *testing.T) {
	cases := []struct {
		md   metadata.MD
		want string
		ok   bool
	}{
		{metadata.Pairs("authorization", "Bearer abc"), "abc", true},
		{metadata.Pairs("authorization", "bearer  abc "), "abc", true},
		{metadata.Pairs("authorization", "Basic abc"), "", false},
		{metadata.Pairs("authorization", "Bearer"), "", false},
		{metadata.MD{}, "", false},
	}
	for _, tc := range cases {
		got, ok := BearerFromMetadata(tc.md)
		assert.Equal(t, tc.ok, ok, tc.md)
		assert.Equal(t, tc.want, got, tc.md)
	}
}
