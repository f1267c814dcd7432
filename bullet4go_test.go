package bullet4go

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/notify"
)

func TestUseInstallsPlugin(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, Use(gdb, nil))
	assert.Contains(t, gdb.Config.Plugins, "bullet4go")
}

func TestScopeLifecycle(t *testing.T) {
	scope := NewScope(nil, nil)
	req, err := scope.Start()
	require.NoError(t, err)

	require.NoError(t, req.NotifyAccess("Post", "comments", 1))
	require.NoError(t, req.NotifyAccess("Post", "comments", 2))

	summary, err := scope.End()
	require.NoError(t, err)
	assert.True(t, summary.Unpreloaded.Contains(association.Key{Owner: "Post", Name: "comments"}, association.Path{}))
}

func TestMiddlewareNotifies(t *testing.T) {
	var got []Summary
	notifier := notify.NotifierFunc(func(_ context.Context, s Summary) error {
		got = append(got, s)
		return nil
	})

	handler := Middleware(DefaultConfig(), notifier, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, ok := association.FromContext(r.Context())
		require.True(t, ok)
		_ = req.NotifyAccess("Category", "posts", 1)
		_ = req.NotifyAccess("Category", "posts", 2)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Unpreloaded.Len())
}
