package request

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

func TestPagingNormalize(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		var v validate.Collector
		p := Paging{}
		p.Normalize(&v)
		require.NoError(t, v.Err())
		assert.Equal(t, Paging{Page: DefaultPage, Limit: DefaultLimit}, p)
		assert.Equal(t, uint64(0), p.Offset())
	})

	t.Run("Offset", func(t *testing.T) {
		assert.Equal(t, uint64(40), Paging{Page: 3, Limit: 20}.Offset())
	})

	t.Run("Limit Out Of Range", func(t *testing.T) {
		var v validate.Collector
		p := Paging{Page: 1, Limit: MaxLimit + 1}
		p.Normalize(&v)

		var errs validate.Errors
		require.ErrorAs(t, v.Err(), &errs)
		assert.Equal(t, "limit", errs[0].Param)
	})

	t.Run("Page Too Large For Offset", func(t *testing.T) {
		var v validate.Collector
		p := Paging{Page: 500_000_000_000_000_000, Limit: 100}
		p.Normalize(&v)

		var errs validate.Errors
		require.ErrorAs(t, v.Err(), &errs)
		require.Len(t, errs, 1)
		assert.Equal(t, "page", errs[0].Param)
		assert.LessOrEqual(t, p.Offset(), uint64(math.MaxInt64))
	})

	t.Run("Largest Page Accepted", func(t *testing.T) {
		var v validate.Collector
		p := Paging{Page: math.MaxInt64/100 + 1, Limit: 100}
		p.Normalize(&v)
		require.NoError(t, v.Err())
		assert.LessOrEqual(t, p.Offset(), uint64(math.MaxInt64))
	})
}
