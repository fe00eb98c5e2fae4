package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetadata_Value tests the Metadata Valuer implementation
func TestMetadata_Value(t *testing.T) {
	tests := []struct {
		name     string
		metadata Metadata
		expected string
	}{
		{
			name:     "Nil metadata",
			metadata: nil,
			expected: "",
		},
		{
			name:     "Empty metadata",
			metadata: Metadata{},
			expected: `{}`,
		},
		{
			name: "Populated metadata",
			metadata: Metadata{
				"theme": "dark",
				"muted": true,
			},
			expected: `{"muted":true,"theme":"dark"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := tt.metadata.Value()
			assert.NoError(t, err)

			if tt.expected == "" {
				assert.Nil(t, value)
			} else {
				require.NotNil(t, value)
				assert.JSONEq(t, tt.expected, string(value.([]byte)))
			}
		})
	}
}

// TestMetadata_Scan tests the Metadata Scanner implementation
func TestMetadata_Scan(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected Metadata
		hasError bool
	}{
		{
			name:     "Nil value",
			value:    nil,
			expected: nil,
		},
		{
			name:     "Byte slice",
			value:    []byte(`{"theme":"dark"}`),
			expected: Metadata{"theme": "dark"},
		},
		{
			name:     "String",
			value:    `{"muted":true}`,
			expected: Metadata{"muted": true},
		},
		{
			name:     "Unsupported type",
			value:    42,
			hasError: true,
		},
		{
			name:     "Invalid JSON",
			value:    []byte(`{not json`),
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metadata
			err := m.Scan(tt.value)

			if tt.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, m)
			}
		})
	}
}

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		name         string
		a, b         string
		expectedLow  string
		expectedHigh string
	}{
		{
			name:         "Already ordered",
			a:            "user-a",
			b:            "user-b",
			expectedLow:  "user-a",
			expectedHigh: "user-b",
		},
		{
			name:         "Reversed input",
			a:            "user-b",
			b:            "user-a",
			expectedLow:  "user-a",
			expectedHigh: "user-b",
		},
		{
			name:         "UUID ordering",
			a:            "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			b:            "0e02b2c3-d479-4372-a567-f47ac10b58cc",
			expectedLow:  "0e02b2c3-d479-4372-a567-f47ac10b58cc",
			expectedHigh: "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := NormalizePair(tt.a, tt.b)
			assert.Equal(t, tt.expectedLow, low)
			assert.Equal(t, tt.expectedHigh, high)
		})
	}
}

func TestNormalizePair_Symmetric(t *testing.T) {
	low1, high1 := NormalizePair("alice", "bob")
	low2, high2 := NormalizePair("bob", "alice")

	assert.Equal(t, low1, low2)
	assert.Equal(t, high1, high2)
}

// TestMessageStatus_CanTransitionTo tests the forward-only status machine
func TestMessageStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    MessageStatus
		to      MessageStatus
		allowed bool
	}{
		{"Sent to delivered", MessageStatusSent, MessageStatusDelivered, true},
		{"Sent to read", MessageStatusSent, MessageStatusRead, true},
		{"Delivered to read", MessageStatusDelivered, MessageStatusRead, true},
		{"Read to sent", MessageStatusRead, MessageStatusSent, false},
		{"Read to delivered", MessageStatusRead, MessageStatusDelivered, false},
		{"Delivered to sent", MessageStatusDelivered, MessageStatusSent, false},
		{"Same status", MessageStatusRead, MessageStatusRead, true},
		{"Unknown source", MessageStatus("BOGUS"), MessageStatusRead, false},
		{"Unknown target", MessageStatusSent, MessageStatus("BOGUS"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestMessageStatus_Valid(t *testing.T) {
	assert.True(t, MessageStatusSent.Valid())
	assert.True(t, MessageStatusDelivered.Valid())
	assert.True(t, MessageStatusRead.Valid())
	assert.False(t, MessageStatus("").Valid())
	assert.False(t, MessageStatus("sent").Valid())
}

func TestMatch_Helpers(t *testing.T) {
	match := &Match{
		UserIDLow:  "user-a",
		UserIDHigh: "user-b",
		IsReadLow:  true,
		IsReadHigh: false,
	}

	assert.True(t, match.Involves("user-a"))
	assert.True(t, match.Involves("user-b"))
	assert.False(t, match.Involves("user-c"))

	assert.Equal(t, "user-b", match.OtherUser("user-a"))
	assert.Equal(t, "user-a", match.OtherUser("user-b"))

	assert.True(t, match.IsReadBy("user-a"))
	assert.False(t, match.IsReadBy("user-b"))
}

func TestChatRoom_Members(t *testing.T) {
	room := &ChatRoom{
		UserIDLow:  "user-a",
		UserIDHigh: "user-b",
	}

	assert.True(t, room.HasMember("user-a"))
	assert.True(t, room.HasMember("user-b"))
	assert.False(t, room.HasMember("user-c"))

	other, ok := room.OtherMember("user-a")
	require.True(t, ok)
	assert.Equal(t, "user-b", other)

	other, ok = room.OtherMember("user-b")
	require.True(t, ok)
	assert.Equal(t, "user-a", other)

	_, ok = room.OtherMember("user-c")
	assert.False(t, ok)
}
