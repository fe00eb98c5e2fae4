package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkmatch/sparkmatch/internal/database"
	apperrors "github.com/sparkmatch/sparkmatch/internal/errors"
)

type chatroomFixture struct {
	rooms    *memRoomStore
	messages *memMessageStore
	users    *memUserDirectory
	service  *ChatRoomService
}

func newChatRoomFixture(userIDs ...string) *chatroomFixture {
	f := &chatroomFixture{
		rooms:    newMemRoomStore(),
		messages: newMemMessageStore(),
		users:    newMemUserDirectory(userIDs...),
	}
	f.service = NewChatRoomService(f.rooms, f.messages, f.users)
	return f
}

func TestChatRoomService_GetOrCreate_OrderIndependent(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	room1, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)

	room2, err := f.service.GetOrCreate(ctx, userB, userA)
	require.NoError(t, err)

	assert.Equal(t, room1.ID, room2.ID)
	assert.Equal(t, 1, f.rooms.count())
	assert.True(t, room1.UserIDLow < room1.UserIDHigh)
}

func TestChatRoomService_GetOrCreate_ReactivatesInactive(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	room, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)

	require.NoError(t, f.service.Deactivate(ctx, userA, userB))

	revived, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)
	assert.Equal(t, room.ID, revived.ID)
	assert.True(t, revived.IsActive)
	assert.Equal(t, 1, f.rooms.count())
}

func TestChatRoomService_GetOrCreate_Validation(t *testing.T) {
	userA := uuid.New().String()
	f := newChatRoomFixture(userA)
	ctx := context.Background()

	_, err := f.service.GetOrCreate(ctx, userA, userA)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = f.service.GetOrCreate(ctx, userA, "bogus")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
}

func TestChatRoomService_FindActive(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	_, err := f.service.FindActive(ctx, userA, userB)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	room, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)

	found, err := f.service.FindActive(ctx, userB, userA)
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)

	require.NoError(t, f.service.Deactivate(ctx, userA, userB))

	_, err = f.service.FindActive(ctx, userA, userB)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestChatRoomService_FindByID(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	_, err := f.service.FindByID(ctx, "not-a-uuid")
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))

	_, err = f.service.FindByID(ctx, uuid.New().String())
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))

	room, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)

	found, err := f.service.FindByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, found.ID)

	// Inactive rooms count as absent.
	require.NoError(t, f.service.Deactivate(ctx, userA, userB))
	_, err = f.service.FindByID(ctx, room.ID)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeNotFound))
}

func TestChatRoomService_Deactivate_MissingIsNoOp(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	// No room exists yet.
	assert.NoError(t, f.service.Deactivate(ctx, userA, userB))

	_, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)

	// Deactivating twice is equally fine.
	assert.NoError(t, f.service.Deactivate(ctx, userA, userB))
	assert.NoError(t, f.service.Deactivate(ctx, userA, userB))
}

func TestChatRoomService_ListUserRooms(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	userC := uuid.New().String()
	f := newChatRoomFixture(userA, userB, userC)
	ctx := context.Background()

	roomAB, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)
	roomAC, err := f.service.GetOrCreate(ctx, userA, userC)
	require.NoError(t, err)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// B sent A two messages, one of which A already read.
	read := base.Add(time.Minute)
	require.NoError(t, f.messages.Insert(ctx, &database.Message{
		ID: uuid.New().String(), ChatRoomID: roomAB.ID,
		SenderID: userB, RecipientID: userA,
		Content: "old", Status: database.MessageStatusRead,
		CreatedAt: base, ReadAt: &read,
	}))
	require.NoError(t, f.messages.Insert(ctx, &database.Message{
		ID: uuid.New().String(), ChatRoomID: roomAB.ID,
		SenderID: userB, RecipientID: userA,
		Content: "new", Status: database.MessageStatusSent,
		CreatedAt: base.Add(2 * time.Minute),
	}))

	// The AB room is the more recently active one.
	require.NoError(t, f.rooms.Touch(ctx, roomAC.ID, base))
	require.NoError(t, f.rooms.Touch(ctx, roomAB.ID, base.Add(2*time.Minute)))

	summaries, err := f.service.ListUserRooms(ctx, userA)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, roomAB.ID, summaries[0].Room.ID)
	assert.Equal(t, userB, summaries[0].OtherUser.ID)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "new", summaries[0].LastMessage.Content)
	assert.Equal(t, 1, summaries[0].UnreadCount)

	assert.Equal(t, roomAC.ID, summaries[1].Room.ID)
	assert.Equal(t, userC, summaries[1].OtherUser.ID)
	assert.Nil(t, summaries[1].LastMessage)
	assert.Equal(t, 0, summaries[1].UnreadCount)
}

func TestChatRoomService_ListUserRooms_ExcludesInactive(t *testing.T) {
	userA := uuid.New().String()
	userB := uuid.New().String()
	f := newChatRoomFixture(userA, userB)
	ctx := context.Background()

	_, err := f.service.GetOrCreate(ctx, userA, userB)
	require.NoError(t, err)
	require.NoError(t, f.service.Deactivate(ctx, userA, userB))

	summaries, err := f.service.ListUserRooms(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
