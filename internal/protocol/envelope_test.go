package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"parley/internal/domain"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	msg := domain.NewBroadcast("alice", "hello everyone")
	envs := []Envelope{
		Command(CmdAuthRequest),
		PublicKey([]byte{0x30, 0x82, 0x01, 0x22}),
		Chat(msg),
		Directory(map[string][]byte{"alice": {1, 2, 3}}),
	}
	for _, env := range envs {
		t.Run(env.Kind.String(), func(t *testing.T) {
			b, err := env.Encode()
			require.NoError(t, err)

			got, err := DecodeEnvelope(b)
			require.NoError(t, err)
			require.Equal(t, env.Kind, got.Kind)
			require.Equal(t, env.Command, got.Command)
			require.Equal(t, env.Key, got.Key)
			require.Equal(t, env.Directory, got.Directory)
			if env.Chat != nil {
				require.Equal(t, env.Chat.From, got.Chat.From)
				require.Equal(t, env.Chat.Content, got.Chat.Content)
				require.True(t, env.Chat.Timestamp.Equal(got.Chat.Timestamp))
			}
		})
	}
}

func TestEnvelopeValidate(t *testing.T) {
	msg := domain.NewBroadcast("bob", "hi")
	bad := []Envelope{
		{},                                   // no kind
		{Kind: Kind(99), Command: "X"},       // unknown kind
		{Kind: KindCommand},                  // empty payload
		{Kind: KindCommand, Command: "X", Key: []byte{1}}, // two payloads
		{Kind: KindPublicKey},
		{Kind: KindChat},
		{Kind: KindChat, Chat: &msg, Command: "X"},
		{Kind: KindDirectory},
	}
	for _, env := range bad {
		require.ErrorIs(t, env.Validate(), ErrMalformedEnvelope)
		_, err := env.Encode()
		require.Error(t, err)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte("definitely not cbor"))
	require.Error(t, err)
}

func TestChangePasswordArgs(t *testing.T) {
	oldPass, newPass, ok := ChangePasswordArgs("CHANGE_PASSWORD:old!Pass1|new!Pass2")
	require.True(t, ok)
	require.Equal(t, "old!Pass1", oldPass)
	require.Equal(t, "new!Pass2", newPass)

	// Only the first separator splits; later ones belong to the new password.
	oldPass, newPass, ok = ChangePasswordArgs("CHANGE_PASSWORD:a|b|c")
	require.True(t, ok)
	require.Equal(t, "a", oldPass)
	require.Equal(t, "b|c", newPass)

	_, _, ok = ChangePasswordArgs("CHANGE_PASSWORD:missing separator")
	require.False(t, ok)
	_, _, ok = ChangePasswordArgs("USER_INFO")
	require.False(t, ok)
}
