package sections

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/shared"
)

var removeActions = map[RefKind]string{
	RefReview:        "Delete",
	RefFavorite:      "Remove",
	RefPlaylist:      "Delete",
	RefPlaylistTrack: "Remove",
	RefFollow:        "Unfollow",
	RefHistory:       "Delete",
}

// Remove builds the confirmation request that deletes what item points at.
//
// The credential is read when the request is resolved, not when it is built.
func (l *Loader) Remove(item Item) (*confirm.Request, error) {
	ref := item.Ref
	if ref == nil {
		return nil, fmt.Errorf("%w: %q cannot be removed", shared.ErrInvalidArgument, item.Title)
	}

	execute, err := l.removal(*ref)
	if err != nil {
		return nil, err
	}

	intent := confirm.Intent{Action: removeActions[ref.Kind], Target: ref.Label}
	return confirm.NewRequest(intent, func(ctx context.Context) error {
		credential := l.session.Credential()
		if credential == "" {
			return shared.ErrNotAuthenticated
		}
		if err := execute(ctx, credential); err != nil {
			return err
		}
		l.logger.Info("removed", "kind", ref.Kind, "id", ref.ID)
		return nil
	}), nil
}

func (l *Loader) removal(ref Ref) (func(ctx context.Context, credential string) error, error) {
	switch ref.Kind {
	case RefFavorite:
		return func(ctx context.Context, credential string) error {
			return l.backend.RemoveFavorite(ctx, credential, ref.ID)
		}, nil
	case RefPlaylistTrack:
		playlistID, err := parseRefID(ref.ParentID)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, credential string) error {
			return l.backend.RemovePlaylistTrack(ctx, credential, playlistID, ref.ID)
		}, nil
	}

	id, err := parseRefID(ref.ID)
	if err != nil {
		return nil, err
	}

	switch ref.Kind {
	case RefReview:
		return func(ctx context.Context, credential string) error {
			return l.backend.DeleteReview(ctx, credential, id)
		}, nil
	case RefPlaylist:
		return func(ctx context.Context, credential string) error {
			return l.backend.DeletePlaylist(ctx, credential, id)
		}, nil
	case RefFollow:
		return func(ctx context.Context, credential string) error {
			return l.backend.Unfollow(ctx, credential, id)
		}, nil
	case RefHistory:
		return func(ctx context.Context, credential string) error {
			return l.backend.DeleteHistory(ctx, credential, id)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown item kind %q", shared.ErrInvalidArgument, ref.Kind)
	}
}

func parseRefID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// ClearHistory builds the confirmation request that erases the whole search history.
func (l *Loader) ClearHistory() *confirm.Request {
	intent := confirm.Intent{Action: "Clear search history"}
	return confirm.NewRequest(intent, func(ctx context.Context) error {
		credential := l.session.Credential()
		if credential == "" {
			return shared.ErrNotAuthenticated
		}
		return l.backend.ClearHistory(ctx, credential)
	})
}
