package chat

import "errors"

var (
	ErrForbidden           = errors.New("operation not permitted")
	ErrNotParticipant      = errors.New("user is not a room participant")
	ErrNotFriends          = errors.New("users are not friends")
	ErrCreatorImmutable    = errors.New("room creator cannot be removed")
	ErrCreatorMustTransfer = errors.New("creator must transfer ownership before leaving")
	ErrNewOwnerNotMember   = errors.New("new owner must already be a participant")
)
