package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type uploaderStub struct {
	name string
	data []byte
	err  error
}

func (u *uploaderStub) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	u.name = name
	u.data = data
	return "https://cdn.example.com/" + name, nil
}

// Minimal valid PNG header followed by filler bytes.
func pngBytes() []byte {
	header := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, 64)...)
}

func TestUploadAcceptsImage(t *testing.T) {
	uploader := &uploaderStub{}
	svc := NewUploadService(uploader, testLogger())

	payload := pngBytes()
	url, err := svc.UploadMedia(context.Background(), "party.png", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/party.png", url)
	require.Equal(t, payload, uploader.data)
}

func TestUploadRejectsNonMedia(t *testing.T) {
	uploader := &uploaderStub{}
	svc := NewUploadService(uploader, testLogger())

	_, err := svc.UploadMedia(context.Background(), "notes.txt", bytes.NewReader([]byte("just some text")))
	require.ErrorIs(t, err, ErrBadRequest)
	require.Empty(t, uploader.data)
}

func TestUploadForwardsFullPayload(t *testing.T) {
	uploader := &uploaderStub{}
	svc := NewUploadService(uploader, testLogger())

	// Larger than the sniff window; the uploader must still see every byte.
	payload := append(pngBytes(), bytes.Repeat([]byte{0xAB}, 8192)...)
	_, err := svc.UploadMedia(context.Background(), "large.png", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, payload, uploader.data)
}
