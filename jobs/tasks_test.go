package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/crediview/crediview/internal/dataset"
	"github.com/crediview/crediview/internal/titles"
)

type fixedLoader struct {
	set []titles.Title
}

func (l fixedLoader) Load(ctx context.Context) ([]titles.Title, error) {
	return l.set, nil
}

func TestRefreshHandlerReplacesStore(t *testing.T) {
	store := titles.NewStore()
	refresher := dataset.NewRefresher(fixedLoader{set: []titles.Title{
		{Counterparty: "A", OriginalAmount: 10, OutstandingBalance: 10},
	}}, store, nil, nil)

	task, err := NewDatasetRefreshTask(DatasetRefreshPayload{Reason: "test"})
	require.NoError(t, err)

	handler := RefreshHandler(refresher, nil)
	require.NoError(t, handler(context.Background(), task))
	require.Len(t, store.Current().Titles, 1)
}

func TestRefreshHandlerSkipsRetryOnBadPayload(t *testing.T) {
	store := titles.NewStore()
	refresher := dataset.NewRefresher(fixedLoader{}, store, nil, nil)

	handler := RefreshHandler(refresher, nil)
	err := handler(context.Background(), asynq.NewTask(TaskDatasetRefresh, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
