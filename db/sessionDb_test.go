package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestNewPostgresSessionRepositoryClosesOnPingFailure(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	repo, err := NewPostgresSessionRepository("postgres://studybuddy@127.0.0.1:1/studybuddy?sslmode=disable&connect_timeout=1")
	assert.Nil(t, repo)
	assert.ErrorContains(t, err, "failed to ping database")
}
