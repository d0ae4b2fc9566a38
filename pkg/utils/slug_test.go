package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryPathSegment(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"латиница с пробелами", "Bug Fixes", "bug-fixes"},
		{"спецсимволы схлопываются", "Bug Fixes / Hotfix", "bug-fixes-hotfix"},
		{"амперсанд", "R&D", "r-d"},
		{"кириллица", "Серверы и сети", "серверы-и-сети"},
		{"крайние дефисы срезаются", "  --Infra--  ", "infra"},
		{"только мусор", "///", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CategoryPathSegment(tc.in))
		})
	}
}

func TestBuildCategoryPath(t *testing.T) {
	assert.Equal(t, "infra/bug-fixes", BuildCategoryPath([]string{"Infra", "Bug Fixes"}))
	// Пустые сегменты не порождают двойных слешей.
	assert.Equal(t, "infra", BuildCategoryPath([]string{"///", "Infra"}))
	assert.Equal(t, "", BuildCategoryPath(nil))
}
