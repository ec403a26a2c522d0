package contact

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/pkg/crm"
	"github.com/nekogravitycat/crm-backend/internal/pkg/request"
)

func contactRow(rows *pgxmock.Rows, id int64, orgID *int64, orgName *string) *pgxmock.Rows {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	first, last := "Ann", "Lee"
	return rows.AddRow(
		id, "Jane", "Doe", "jane@example.com", "", "CTO", "",
		StatusCustomer, crm.SourceReferral, crm.PriorityHigh, []byte(`["vip"]`), "",
		[]byte(`{"city":"Taipei"}`), []byte(nil),
		(*time.Time)(nil), (*time.Time)(nil), int64(3), orgID,
		now, now,
		&first, &last, orgName,
	)
}

func TestContactRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	orgID, orgName := int64(20), "Acme"

	mock.ExpectQuery(`SELECT count\(\*\) FROM contacts c WHERE \(c.status = \$1 AND \(c.first_name ILIKE \$2 OR c.last_name ILIKE \$3 OR c.email ILIKE \$4\)\)`).
		WithArgs(StatusCustomer, "%ja\\_ne%", "%ja\\_ne%", "%ja\\_ne%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(21))

	rows := pgxmock.NewRows(selectColumns)
	contactRow(rows, 1, &orgID, &orgName)
	contactRow(rows, 2, nil, nil)
	mock.ExpectQuery(`SELECT .+ FROM contacts c LEFT JOIN users u .+ LEFT JOIN organizations o .+ ORDER BY c.created_at DESC, c.id DESC`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(rows)

	list, total, err := NewPgxRepository(mock).List(context.Background(), Filter{
		Status: StatusCustomer,
		Search: "ja_ne",
		Paging: request.Paging{Page: 2, Limit: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, list, 2)

	first := list[0]
	assert.Equal(t, []string{"vip"}, first.Tags)
	require.NotNil(t, first.Address)
	assert.Equal(t, "Taipei", first.Address.City)
	assert.Nil(t, first.SocialMedia)
	assert.Equal(t, &crm.UserRef{ID: 3, FirstName: "Ann", LastName: "Lee"}, first.AssignedUser)
	assert.Equal(t, &crm.OrganizationRef{ID: 20, Name: "Acme"}, first.Organization)
	assert.Nil(t, list[1].Organization)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_HasDependents(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	busy, err := NewPgxRepository(mock).HasDependents(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, busy)
}
