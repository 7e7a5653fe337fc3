package repository

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
	"github.com/ponyo877/vivachat/client/wire"
)

// FetchSnapshot loads room details and the message history concurrently.
// The full history replaces the handful of recent messages the details
// carry.
func (c *APIClient) FetchSnapshot(ctx context.Context, roomID int64) (domain.RoomSnapshot, error) {
	var (
		detail  wire.RoomDetail
		history []wire.Message
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = call[wire.RoomDetail](gctx, c, request{
			method: http.MethodGet, route: "/rooms/{id}/details", path: fmt.Sprintf("/rooms/%d/details", roomID),
		})
		if err != nil {
			return fmt.Errorf("error fetching room %d: %w", roomID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = call[[]wire.Message](gctx, c, request{
			method: http.MethodGet, route: "/messages/room/{id}", path: fmt.Sprintf("/messages/room/%d", roomID),
		})
		if err != nil {
			return fmt.Errorf("error fetching messages of room %d: %w", roomID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.RoomSnapshot{}, err
	}

	snap := detail.Snapshot()
	if history != nil {
		snap.RecentMessages = wire.Messages(history)
	}
	return snap, nil
}

func (c *APIClient) rooms(ctx context.Context, path string) ([]domain.Room, error) {
	res, err := call[[]wire.Room](ctx, c, request{method: http.MethodGet, route: path, path: path})
	if err != nil {
		return nil, err
	}
	rooms := make([]domain.Room, len(res))
	for i, r := range res {
		rooms[i] = r.Domain()
	}
	return rooms, nil
}

func (c *APIClient) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return c.rooms(ctx, "/rooms")
}

func (c *APIClient) MyRooms(ctx context.Context) ([]domain.Room, error) {
	return c.rooms(ctx, "/rooms/my-rooms")
}

// CreateRoom returns the new room and its PIN in clear text, shown to the
// creator once.
func (c *APIClient) CreateRoom(ctx context.Context, in usecase.CreateRoomInput) (domain.Room, string, error) {
	body, err := c.jsonBody(wire.CreateRoomRequest{
		Name:          in.Name,
		Description:   in.Description,
		Pin:           in.Pin,
		Type:          string(in.Type),
		MaxUsers:      in.MaxUsers,
		MaxFileSizeMB: in.MaxFileSizeMB,
	})
	if err != nil {
		return domain.Room{}, "", err
	}
	res, err := call[wire.Room](ctx, c, request{
		method: http.MethodPost, route: "/rooms/create", path: "/rooms/create",
		body: body, contentType: "application/json",
	})
	if err != nil {
		return domain.Room{}, "", err
	}
	return res.Domain(), res.PlainPin, nil
}

func (c *APIClient) JoinRoom(ctx context.Context, code, pin, deviceID string) (domain.RoomSnapshot, error) {
	body, err := c.jsonBody(wire.JoinRoomRequest{RoomCode: code, Pin: pin, DeviceID: deviceID})
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	res, err := call[wire.RoomDetail](ctx, c, request{
		method: http.MethodPost, route: "/rooms/join", path: "/rooms/join",
		body: body, contentType: "application/json",
	})
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return res.Snapshot(), nil
}

func (c *APIClient) LeaveRoom(ctx context.Context, roomID int64) error {
	_, err := call[any](ctx, c, request{
		method: http.MethodPost, route: "/rooms/{id}/leave", path: fmt.Sprintf("/rooms/%d/leave", roomID),
	})
	return err
}
