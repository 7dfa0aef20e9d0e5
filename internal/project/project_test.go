package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docgen/internal/registry"
)

const mathSource = `package com.acme.math;

public class MathUtil {
    public static int clamp(int v, int max) {
        if (v > max) {
            return max;
        }
        return v;
    }
}
`

const appSource = `package com.acme.app;

import com.acme.math.MathUtil;

public class App {
    public int score(int raw) {
        return clamp(raw, 100);
    }
}
`

func TestScanner_Scan(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "math"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "math", "MathUtil.java"), []byte(mathSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "App.java"), []byte(appSource), 0644))

	reg := registry.New()
	scanner, err := NewScanner("java", reg)
	require.NoError(t, err)

	files, stats, err := scanner.Scan(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 2, stats.Methods)

	t.Run("Cross-file call resolves through the import tier", func(t *testing.T) {
		score, ok := reg.ByUMID("com.acme.app.App#score(int)")
		require.True(t, ok)
		require.Len(t, score.Dependencies, 1)

		dep := score.Dependencies[0]
		assert.Equal(t, "com.acme.math.MathUtil#clamp(int,int)", dep.TargetID)
		assert.Equal(t, "import", dep.Tier)
		assert.False(t, dep.Ambiguous)
	})
}

func TestScanner_UnsupportedLanguage(t *testing.T) {
	_, err := NewScanner("fortran", registry.New())
	assert.Error(t, err)
}
