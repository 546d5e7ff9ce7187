package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daebok/speedment/typemapper"
)

func buildTestDbms(t *testing.T) *Dbms {
	t.Helper()

	d := NewDbms("testdb")
	s, err := d.AddSchema("public")
	require.NoError(t, err)

	users, err := s.AddTable("users")
	require.NoError(t, err)

	id, err := users.AddColumn("id")
	require.NoError(t, err)
	require.NoError(t, id.SetOrdinalPosition(1))
	require.NoError(t, id.SetTypeName("int4"))
	require.NoError(t, id.SetDatabaseType(typemapper.Int32))
	require.NoError(t, id.SetTypeMapper(typemapper.Identity(typemapper.Int32)))

	email, err := users.AddColumn("email")
	require.NoError(t, err)
	require.NoError(t, email.SetOrdinalPosition(2))
	require.NoError(t, email.SetTypeName("varchar"))
	require.NoError(t, email.SetNullable(true))

	pk, err := users.AddPrimaryKeyColumn("id")
	require.NoError(t, err)
	require.NoError(t, pk.SetOrdinalPosition(1))

	idx, err := users.AddIndex()
	require.NoError(t, err)
	require.NoError(t, idx.SetName("idx_users_email"))
	require.NoError(t, idx.SetUnique(true))
	_, err = idx.AddColumn("email", 1, OrderAsc)
	require.NoError(t, err)

	orders, err := s.AddTable("orders")
	require.NoError(t, err)
	uid, err := orders.AddColumn("user_id")
	require.NoError(t, err)
	require.NoError(t, uid.SetOrdinalPosition(1))
	require.NoError(t, uid.SetTypeName("int4"))

	fk, err := orders.AddForeignKey()
	require.NoError(t, err)
	require.NoError(t, fk.SetName("orders_user_fk"))
	_, err = fk.AddColumn("user_id", 1, "users", "id")
	require.NoError(t, err)

	d.Freeze()
	return d
}

func TestFormatInfo(t *testing.T) {
	d := buildTestDbms(t)

	result := FormatInfo(d)

	assert.Contains(t, result, "Schema: public")
	assert.Contains(t, result, "Table: users")
	assert.Contains(t, result, "id INT4 NOT NULL -> int32 (PRIMARY KEY)")
	assert.Contains(t, result, "email VARCHAR NULL")
	assert.Contains(t, result, "idx_users_email on (email) (UNIQUE)")
	assert.Contains(t, result, "orders_user_fk: user_id -> users(id)")
}

func TestFormatSQL(t *testing.T) {
	d := buildTestDbms(t)

	result := FormatSQL(d)

	assert.Contains(t, result, "create table users")
	assert.Contains(t, result, "id int4 not null")
	assert.Contains(t, result, "email varchar")
	assert.Contains(t, result, "primary key (id)")
	assert.Contains(t, result, "create unique index idx_users_email on users (email);")
	assert.Contains(t, result, "foreign key (user_id) references users (id)")
}

func TestFormatEmptyDbms(t *testing.T) {
	d := NewDbms("empty")
	d.Freeze()

	assert.Empty(t, FormatInfo(d))
	assert.Empty(t, FormatSQL(d))
}

func TestFormatOutputModesDiffer(t *testing.T) {
	d := buildTestDbms(t)

	info := FormatInfo(d)
	ddl := FormatSQL(d)
	assert.NotEmpty(t, info)
	assert.NotEmpty(t, ddl)
	assert.NotEqual(t, info, ddl)
}
