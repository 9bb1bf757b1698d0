package about_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/potluck/core"
	"github.com/trezcool/potluck/core/about"
	"github.com/trezcool/potluck/testutil"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)

	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	about.NowFunc = func() time.Time { return now }
	defer func() { about.NowFunc = time.Now }()

	p, err := env.AboutSvc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, about.DefaultContent, p.Content)
	assert.True(t, p.LastUpdated.IsZero())

	p, err = env.AboutSvc.Update(ctx, "Alice", about.UpdatePage{Content: "<p>Hello</p>"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.LastUpdatedBy)

	got, err := env.AboutSvc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", got.Content)
	assert.Equal(t, "Alice", got.LastUpdatedBy)
	assert.True(t, got.LastUpdated.Equal(now))
}

func TestUpdatePage_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty", content: "", wantErr: true},
		{name: "blank", content: " \n\t ", wantErr: true},
		{name: "html", content: " <p>Hi</p> "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := about.UpdatePage{Content: tt.content}
			if err := up.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	up := about.UpdatePage{Content: " <p>Hi</p> "}
	require.NoError(t, up.Validate(validate))
	assert.Equal(t, "<p>Hi</p>", up.Content)
}
