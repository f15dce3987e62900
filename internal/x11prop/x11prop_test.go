package x11prop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadUnreachableDisplay(t *testing.T) {
	props, err := Read(":9999")
	assert.Error(t, err)
	assert.Nil(t, props)
}
