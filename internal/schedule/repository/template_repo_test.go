package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	"github.com/GoSim-25-26J-441/donna-backend/internal/storage/postgres/pgtest"
)

func TestTemplateRepo_Postgres(t *testing.T) {
	repo := NewTemplateRepo(pgtest.Open(t))
	ctx := context.Background()

	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, schedule.ErrTemplateNotFound)

	tmpl := schedule.DefaultTemplate()
	tmpl.WorkBlocks[0].Start = schedule.MustClock("11:00 AM")
	require.NoError(t, repo.Save(ctx, tmpl))
	require.NoError(t, repo.Save(ctx, tmpl))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "11:00 AM", got.WorkBlocks[0].Start.String())
	assert.Equal(t, tmpl.Timezone, got.Timezone)
}
