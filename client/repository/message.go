package repository

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/ponyo877/vivachat/client/domain"
	"github.com/ponyo877/vivachat/client/usecase"
	"github.com/ponyo877/vivachat/client/wire"
)

func (c *APIClient) FetchMessage(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	res, err := call[wire.Message](ctx, c, request{
		method: http.MethodGet, route: "/messages/{id}", path: fmt.Sprintf("/messages/%d", id),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("error fetching message %d: %w", id, err)
	}
	return res.Domain(), nil
}

func (c *APIClient) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	_, err := call[any](ctx, c, request{
		method: http.MethodDelete, route: "/messages/{id}", path: fmt.Sprintf("/messages/%d", id),
	})
	if err != nil {
		return fmt.Errorf("error deleting message %d: %w", id, err)
	}
	return nil
}

func (c *APIClient) RoomMessages(ctx context.Context, roomID int64) ([]domain.Message, error) {
	res, err := call[[]wire.Message](ctx, c, request{
		method: http.MethodGet, route: "/messages/room/{id}", path: fmt.Sprintf("/messages/room/%d", roomID),
	})
	if err != nil {
		return nil, err
	}
	return wire.Messages(res), nil
}

func (c *APIClient) SendTextMessage(ctx context.Context, roomID int64, content string) (domain.Message, error) {
	body, err := c.jsonBody(wire.TextMessageRequest{RoomID: roomID, Content: content})
	if err != nil {
		return domain.Message{}, err
	}
	res, err := call[wire.Message](ctx, c, request{
		method: http.MethodPost, route: "/messages/text", path: "/messages/text",
		body: body, contentType: "application/json",
	})
	if err != nil {
		return domain.Message{}, err
	}
	return res.Domain(), nil
}

// SendFileMessage streams the upload as multipart/form-data with the
// fields roomId, content and file.
func (c *APIClient) SendFileMessage(ctx context.Context, roomID int64, upload usecase.FileUpload) (domain.Message, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mw, roomID, upload)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	res, err := call[wire.Message](ctx, c, request{
		method: http.MethodPost, route: "/messages/file", path: "/messages/file",
		body: pr, contentType: mw.FormDataContentType(),
	})
	// Unblocks the writer if the request ended early.
	pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return domain.Message{}, fmt.Errorf("error uploading %s: %w", upload.Name, err)
	}
	return res.Domain(), nil
}

func writeUpload(mw *multipart.Writer, roomID int64, upload usecase.FileUpload) error {
	if err := mw.WriteField("roomId", strconv.FormatInt(roomID, 10)); err != nil {
		return err
	}
	if err := mw.WriteField("content", upload.Caption); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("file", upload.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, upload.Content)
	return err
}
