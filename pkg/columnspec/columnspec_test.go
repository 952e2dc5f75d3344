package columnspec_test

import (
	"testing"

	"github.com/pseudomuto/crossmigrate/pkg/change"
	. "github.com/pseudomuto/crossmigrate/pkg/columnspec"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want change.Column
	}{
		{
			spec: "id int32 primary key identity",
			want: change.NewColumn("id", change.Int32()).PrimaryKey().Identity(),
		},
		{
			spec: "name string(50) not null default 'it''s'",
			want: change.NewColumn("name", change.String(50)).Default("it's"),
		},
		{
			spec: "email STRING(255) NULL UNIQUE",
			want: change.NewColumn("email", change.String(255)).Nullable().Unique(),
		},
		{
			spec: "price decimal(10, 2) default 0.5",
			want: change.NewColumn("price", change.Decimal(10, 2)).Default(0.5),
		},
		{
			spec: "created_at datetime default utc_now()",
			want: change.NewColumn("created_at", change.DateTime()).Default(change.CurrentUTCDateTime),
		},
		{
			spec: "active bool default true",
			want: change.NewColumn("active", change.Boolean()).Default(true),
		},
		{
			spec: "retries bigint default -1",
			want: change.NewColumn("retries", change.Int64()).Default(int64(-1)),
		},
		{
			spec: "note text null default null",
			want: change.NewColumn("note", change.Text()).Nullable().Default(change.Null),
		},
		{
			spec: `"Order Id" uuid default new_guid()`,
			want: change.NewColumn("Order Id", change.GUID()).Default(change.NewGUID),
		},
		{
			spec: "payload jsonb null",
			want: change.NewColumn("payload", change.Custom("jsonb")).Nullable(),
		},
		{
			spec: "code nvarchar2(3)",
			want: change.NewColumn("code", change.Custom("nvarchar2(3)")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			col, err := Parse(tt.spec)
			require.NoError(t, err)
			require.Equal(t, tt.want, col)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr string
	}{
		{spec: "", wantErr: `parsing column ""`},
		{spec: "id", wantErr: `parsing column "id"`},
		{spec: "at datetime default tomorrow()", wantErr: "unknown default function tomorrow()"},
		{spec: "name string(1, 2)", wantErr: "type string takes at most one argument"},
		{spec: "name string(1.5)", wantErr: `argument "1.5" is not an integer`},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := Parse(tt.spec)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMustParse(t *testing.T) {
	require.Panics(t, func() { MustParse("id") })
	require.Equal(t, "id", MustParse("id int64").Name)
}
