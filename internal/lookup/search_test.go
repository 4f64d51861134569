package lookup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/shopfloor/internal/model"
)

var searchColumns = []string{"tabela", "coluna", "valor", "detalhes"}

// noImages resolves nothing, keeping search tests free of image queries.
type noImages struct{}

func (noImages) ResolveImage(context.Context, string) (string, error) { return "", nil }

func newSearchEngine(t *testing.T) (*Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewEngine(mock, Options{Images: noImages{}}), mock
}

func TestSearch_MatchesOrderHistory(t *testing.T) {
	engine, mock := newSearchEngine(t)

	mock.ExpectQuery("WITH matches AS").
		WithArgs("%12345%", 50).
		WillReturnRows(pgxmock.NewRows(searchColumns).
			AddRow("historico_op_glide", "pedido", strPtr("OP-12345-A"),
				[]byte(`{"pedido":"OP-12345-A","cliente":"ACME","modelo":"MX-10"}`)))

	matches, err := engine.Search(context.Background(), "12345", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, model.TableOrderHistory, m.Table)
	assert.Equal(t, model.ColumnOrder, m.Column)
	assert.Equal(t, "OP-12345-A", m.Value)
	assert.Equal(t, map[string]string{"pedido": "OP-12345-A", "cliente": "ACME", "modelo": "MX-10"}, m.Details.Fields())
	assert.Nil(t, m.ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_ResultsContainTermAndKeepOrder(t *testing.T) {
	engine, mock := newSearchEngine(t)

	rows := pgxmock.NewRows(searchColumns).
		AddRow("historico_op_glide", "ordem_de_producao", strPtr("op-900"), []byte(`{"ordem_de_producao":"op-900"}`)).
		AddRow("historico_op_glide", "pedido", strPtr("PED-900-1"), []byte(`{"pedido":"PED-900-1"}`)).
		AddRow("historico_op_glide_escopo", "pedido", strPtr("PED-900-1"), []byte(`{"pedido":"PED-900-1"}`)).
		AddRow("historico_pedido", "nota_fiscal", strPtr("NF-1900"), []byte(`{"nota_fiscal":"NF-1900","valor_total":"  "}`))
	mock.ExpectQuery("WITH matches AS").WithArgs("%900%", 10).WillReturnRows(rows)

	matches, err := engine.Search(context.Background(), " 900 ", 10)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	for i, m := range matches {
		assert.Contains(t, strings.ToLower(m.Value), "900")
		for k, v := range m.Details.Fields() {
			assert.NotEmpty(t, v, "details field %s", k)
		}
		if i > 0 {
			prev := matches[i-1]
			prevKey := string(prev.Table) + "\x00" + string(prev.Column) + "\x00" + prev.Value
			key := string(m.Table) + "\x00" + string(m.Column) + "\x00" + m.Value
			assert.Less(t, prevKey, key)
		}
	}
	assert.NotContains(t, matches[3].Details.Fields(), "valor_total")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_NoMatchesIsEmptyList(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs("%ZZZ%", 50).
		WillReturnRows(pgxmock.NewRows(searchColumns))

	matches, err := engine.Search(context.Background(), "ZZZ", 0)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearch_SkipsBlankValues(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs("%PED%", 50).
		WillReturnRows(pgxmock.NewRows(searchColumns).
			AddRow("historico_pedido", "pedido", strPtr("   "), []byte(`{}`)).
			AddRow("historico_pedido", "pedido", nil, []byte(`{}`)).
			AddRow("historico_pedido", "pedido", strPtr(" PED-1 "), []byte(`{}`)))

	matches, err := engine.Search(context.Background(), "PED", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "PED-1", matches[0].Value)
}

func TestSearch_EmptyTermIsInvalidArgument(t *testing.T) {
	engine, mock := newSearchEngine(t)

	for _, term := range []string{"", "   ", "\t\n"} {
		_, err := engine.Search(context.Background(), term, 10)
		require.Error(t, err)
		assert.Equal(t, KindInvalidArgument, KindOf(err))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
	assert.NoError(t, mock.ExpectationsWereMet(), "no query runs for invalid input")
}

func TestSearch_LimitIsClamped(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").WithArgs("%A%", 200).WillReturnRows(pgxmock.NewRows(searchColumns))
	mock.ExpectQuery("WITH matches AS").WithArgs("%A%", 1).WillReturnRows(pgxmock.NewRows(searchColumns))

	_, err := engine.Search(context.Background(), "A", 10_000)
	require.NoError(t, err)
	_, err = engine.Search(context.Background(), "A", -3)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_LiteralWildcards(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs(`%10\%%`, 50).
		WillReturnRows(pgxmock.NewRows(searchColumns))

	_, err := engine.Search(context.Background(), "10%", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_StoreError(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").WithArgs(anyArgs(2)...).WillReturnError(errors.New("connection refused"))

	_, err := engine.Search(context.Background(), "12345", 0)
	require.Error(t, err)
	assert.Equal(t, KindStore, KindOf(err))
	assert.Contains(t, err.Error(), "search query")
}

func TestSearch_ScanError(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows(searchColumns).
			AddRow("historico_pedido", "pedido", strPtr("PED-1"), []byte(`{}`)).
			RowError(0, errors.New("bad row")))

	_, err := engine.Search(context.Background(), "PED", 0)
	require.Error(t, err)
	assert.Equal(t, KindStore, KindOf(err))
}

func TestSearch_UnknownTableFails(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows(searchColumns).
			AddRow("historico_novo", "pedido", strPtr("PED-1"), []byte(`{}`)))

	_, err := engine.Search(context.Background(), "PED", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode search row")
}

func TestSearch_Timeout(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	engine := NewEngine(mock, Options{QueryTimeout: 20 * time.Millisecond, Images: noImages{}})
	mock.ExpectQuery("WITH matches AS").
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows(searchColumns)).
		WillDelayFor(time.Second)

	_, err = engine.Search(context.Background(), "12345", 0)
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
}

func TestSearch_CanceledRequestAbortsQuery(t *testing.T) {
	engine, mock := newSearchEngine(t)
	mock.ExpectQuery("WITH matches AS").
		WithArgs(anyArgs(2)...).
		WillReturnRows(pgxmock.NewRows(searchColumns)).
		WillDelayFor(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := engine.Search(ctx, "12345", 0)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildSearchSQL(t *testing.T) {
	sql := buildSearchSQL(SearchSources)

	assert.Equal(t, 7, strings.Count(sql, "ILIKE $1"), "one branch per searched column")
	assert.Equal(t, 6, strings.Count(sql, "UNION ALL"))
	assert.Contains(t, sql, `FROM "public"."historico_op_glide" t`)
	assert.Contains(t, sql, `FROM "public"."historico_op_glide_escopo" t`)
	assert.Contains(t, sql, `FROM "public"."historico_pedido" t`)
	assert.Contains(t, sql, `'historico_pedido'::text AS tabela, 'nota_fiscal'::text AS coluna`)
	assert.Contains(t, sql, `'modelo', NULLIF(BTRIM(t."modelo"::text), '')`)
	assert.Contains(t, sql, "jsonb_strip_nulls")
	assert.Contains(t, sql, "DISTINCT ON (tabela, coluna, valor)")
	assert.Contains(t, sql, `ORDER BY tabela COLLATE "C", coluna COLLATE "C", valor COLLATE "C"`)
	assert.True(t, strings.HasSuffix(sql, "LIMIT $2"))
}

func TestSearchSources_FieldSets(t *testing.T) {
	require.Len(t, SearchSources, 3)
	for _, src := range SearchSources {
		fields, err := model.DetailFields(src.Table)
		require.NoError(t, err)
		assert.Equal(t, fields, src.Fields, src.Table)
		assert.Contains(t, src.Fields, src.ModelField, src.Table)
		for _, col := range src.Columns {
			assert.Contains(t, src.Fields, string(col), "matched column %s is reported in details", col)
		}
	}
}
