package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRLS(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		dbUser  string
		wantErr bool
		want    string
	}{
		{name: "disabled", mode: "disabled", dbUser: "postgres", want: "disabled"},
		{name: "empty defaults to disabled", mode: "", dbUser: "postgres", want: "disabled"},
		{name: "enforce with app user", mode: "enforce", dbUser: "flock_app", want: "enforce"},
		{name: "enforce normalizes case", mode: "ENFORCE", dbUser: "flock_app", want: "enforce"},
		{name: "enforce rejects superuser", mode: "enforce", dbUser: "postgres", wantErr: true},
		{name: "unknown mode", mode: "shadow", dbUser: "flock_app", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Configuration{RLSEnforce: tt.mode}
			c.Database.User = tt.dbUser
			err := c.validateRLS()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, c.RLSEnforce)
		})
	}
}

func TestDatabaseConnectionString(t *testing.T) {
	d := DatabaseOptions{
		Name: "flock", Host: "db", Port: "5433",
		User: "flock_app", Password: "secret",
	}
	require.Equal(
		t,
		"host=db port=5433 user=flock_app dbname=flock password=secret sslmode=disable",
		d.ConnectionString(),
	)
}
