package e2e

import (
	"bytes"
	"chat-store/infrastructure/grpc/client"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips the whole
// suite when no running chat-store is configured.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.HTTPAddr == "" && s.Config.GrpcAddr == "" {
		s.T().Skip("CHAT_STORE_ADDR and CHAT_STORE_GRPC_ADDR not set")
	}
}

func (s *BaseSuite) header(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

func (s *BaseSuite) dump(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

// GrpcConn opens a connection that logs every call, with bodies when E2E_DEBUG_JSON is set.
func (s *BaseSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	s.header(t, name)
	conn, err := client.Dial(s.Config.GrpcAddr,
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, s.dump(req))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, s.dump(reply))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GrpcAddr)
	return conn
}

// WithMessageClient runs fn with a gRPC message client inside a named step.
func (s *BaseSuite) WithMessageClient(name string, fn func(ctx context.Context, c client.IMessageClient)) {
	if s.Config.GrpcAddr == "" {
		s.T().Skip("CHAT_STORE_GRPC_ADDR not set")
	}
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, client.NewMessageClient(conn))
}

// HTTP sends a JSON request to the REST surface and returns status and raw body.
func (s *BaseSuite) HTTP(name, method, path string, body any) (int, []byte) {
	if s.Config.HTTPAddr == "" {
		s.T().Skip("CHAT_STORE_ADDR not set")
	}
	s.header(s.T(), name)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.Config.HTTPAddr, "/")+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	s.T().Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		s.T().Logf("RESPONSE:\n%s", raw)
	}
	return resp.StatusCode, raw
}
