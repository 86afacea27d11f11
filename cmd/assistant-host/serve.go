package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"replyassist/internal/assistant"
	"replyassist/internal/types"
)

// maxFrameSize caps inbound frames. Chrome limits native-messaging
// payloads to 1 MB toward the host.
const maxFrameSize = 1 << 20

// response is the envelope written back for every command.
type response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"errorKind,omitempty"`
}

// serve reads framed commands from r until EOF, dispatching each one
// sequentially. A malformed frame is fatal (the stream can no longer be
// trusted); a failed command is answered and the loop continues.
func serve(r io.Reader, w io.Writer, orch *assistant.Orchestrator, logger *zap.Logger) error {
	for {
		cmd, err := readFrame(r)
		if errors.Is(err, io.EOF) {
			logger.Info("extension disconnected")
			return nil
		}
		if err != nil {
			logger.Error("failed to read frame", zap.Error(err))
			return err
		}

		logger.Debug("dispatching", zap.Stringer("command", cmd))
		result, err := orch.Dispatch(context.Background(), cmd)

		resp := response{Success: err == nil, Data: result}
		if err != nil {
			resp.Error = err.Error()
			resp.ErrorKind = types.ErrorKind(err)
		}
		if err := writeFrame(w, resp); err != nil {
			logger.Error("failed to write frame", zap.Error(err))
			return err
		}
	}
}

func readFrame(r io.Reader) (assistant.Command, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return assistant.Command{}, io.EOF
		}
		return assistant.Command{}, err
	}
	if length == 0 || length > maxFrameSize {
		return assistant.Command{}, fmt.Errorf("invalid frame length %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return assistant.Command{}, fmt.Errorf("truncated frame: %w", err)
	}

	var cmd assistant.Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return assistant.Command{}, fmt.Errorf("malformed frame: %w", err)
	}
	return cmd, nil
}

func writeFrame(w io.Writer, resp response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}
