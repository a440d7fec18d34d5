//go:build integration
// +build integration

package repository

import (
	"testing"

	"gift-exchange-backend/internal/testutils"
)

func TestMain(m *testing.M) {
	testutils.RunMain(m, "repository")
}
