package mappings

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sawit-erp/sawit-erp/internal/accounting/shared"
)

const testCompany int64 = 1

type mapKey struct {
	companyID int64
	key       SystemKey
}

type memRepo struct {
	rows map[mapKey]Mapping
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[mapKey]Mapping)}
}

func (m *memRepo) Upsert(ctx context.Context, mapping Mapping) (Mapping, error) {
	m.rows[mapKey{mapping.CompanyID, mapping.Key}] = mapping
	return mapping, nil
}

func (m *memRepo) Get(ctx context.Context, companyID int64, key SystemKey) (Mapping, error) {
	mapping, ok := m.rows[mapKey{companyID, key}]
	if !ok {
		return Mapping{}, shared.ErrUnmappedKey
	}
	return mapping, nil
}

func (m *memRepo) ListByCompany(ctx context.Context, companyID int64) ([]Mapping, error) {
	var out []Mapping
	for k, v := range m.rows {
		if k.companyID == companyID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

type stubAccounts struct {
	postable map[int64]bool
}

func (s stubAccounts) IsPostingAccount(ctx context.Context, companyID, accountID int64) error {
	if !s.postable[accountID] {
		return shared.ErrNotPostingAccount
	}
	return nil
}

func TestSetAndResolve(t *testing.T) {
	svc := NewService(newMemRepo(), stubAccounts{postable: map[int64]bool{42: true, 43: true}})
	ctx := context.Background()

	mapping, err := svc.Set(ctx, testCompany, KeySalesCPO, 42)
	require.NoError(t, err)
	require.Equal(t, KeySalesCPO, mapping.Key)

	accountID, err := svc.Resolve(ctx, testCompany, KeySalesCPO)
	require.NoError(t, err)
	require.Equal(t, int64(42), accountID)

	// Rebinding replaces the previous target.
	_, err = svc.Set(ctx, testCompany, KeySalesCPO, 43)
	require.NoError(t, err)
	accountID, err = svc.Resolve(ctx, testCompany, KeySalesCPO)
	require.NoError(t, err)
	require.Equal(t, int64(43), accountID)
}

func TestSetRejectsUnknownKeyAndHeaderAccounts(t *testing.T) {
	svc := NewService(newMemRepo(), stubAccounts{postable: map[int64]bool{42: true}})
	ctx := context.Background()

	_, err := svc.Set(ctx, testCompany, SystemKey("NOT_A_KEY"), 42)
	require.ErrorIs(t, err, shared.ErrUnknownKey)

	_, err = svc.Set(ctx, testCompany, KeyCashMain, 77)
	require.ErrorIs(t, err, shared.ErrNotPostingAccount)
}

func TestResolveUnmappedKey(t *testing.T) {
	svc := NewService(newMemRepo(), stubAccounts{})

	_, err := svc.Resolve(context.Background(), testCompany, KeyPPNMasukan)
	require.ErrorIs(t, err, shared.ErrUnmappedKey)

	_, err = svc.Resolve(context.Background(), testCompany, SystemKey("bogus"))
	require.ErrorIs(t, err, shared.ErrUnknownKey)
}

func TestListIsCompanyScoped(t *testing.T) {
	svc := NewService(newMemRepo(), stubAccounts{postable: map[int64]bool{1: true, 2: true}})
	ctx := context.Background()

	_, err := svc.Set(ctx, testCompany, KeyTBSPurchase, 1)
	require.NoError(t, err)
	_, err = svc.Set(ctx, testCompany, KeyARCustomer, 2)
	require.NoError(t, err)
	_, err = svc.Set(ctx, 2, KeyTBSPurchase, 1)
	require.NoError(t, err)

	listed, err := svc.List(ctx, testCompany)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, KeyARCustomer, listed[0].Key)
	require.Equal(t, KeyTBSPurchase, listed[1].Key)
}
