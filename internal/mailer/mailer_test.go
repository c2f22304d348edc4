package mailer

import (
	"net"
	"testing"

	"coastweb/mailscheduler/internal/model"
	"coastweb/mailscheduler/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendUnreachableServer(t *testing.T) {
	// Reserve a port and close it so the dial is refused
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().(*net.TCPAddr)
	listener.Close()

	cfg := model.EmailConfig{
		SMTPServer:   "127.0.0.1",
		SMTPPort:     addr.Port,
		EmailAddress: "sender@example.com",
		Password:     "secret",
	}

	err = SMTPTransport{}.Send(cfg, []string{"a@x.com"}, "Subject", "Body")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))
}
