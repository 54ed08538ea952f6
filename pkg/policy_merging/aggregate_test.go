package policy_merging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpander struct {
	grants map[string][]GrantDetail
	calls  map[string]int
	err    error
}

func newFakeExpander() *fakeExpander {
	return &fakeExpander{grants: make(map[string][]GrantDetail), calls: make(map[string]int)}
}

func (f *fakeExpander) ExpandUserGrants(_ context.Context, email string) ([]GrantDetail, error) {
	f.calls[email]++
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[email], nil
}

func projectPolicy(role string, members ...string) PolicyRecord {
	return PolicyRecord{
		Resource:  "//cloudresourcemanager.googleapis.com/projects/123",
		AssetType: "cloudresourcemanager.googleapis.com/Project",
		Bindings:  []Binding{{Role: role, Members: members}},
	}
}

func TestMergeManagedServiceAccount(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
	}
	policies := []PolicyRecord{projectPolicy("roles/owner", "serviceAccount:sa1@proj.iam.gserviceaccount.com")}

	report, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"sa1", "sa1", "1234", "owner_Project_(123)", "sa1@proj.iam.gserviceaccount.com", "a123456"}, rows[0])
}

func TestMergeSkipsDeletedMembers(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "old@proj.iam.gserviceaccount.com", UniqueID: "1111"},
	}
	policies := []PolicyRecord{projectPolicy("roles/owner", "deleted:serviceAccount:old@proj.iam.gserviceaccount.com")}

	report, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Len())
}

func TestMergeExcludesUnmanagedServiceAccounts(t *testing.T) {
	policies := []PolicyRecord{projectPolicy("roles/owner", "serviceAccount:agent@gcp-sa-x.iam.gserviceaccount.com")}

	report, err := Merge(context.Background(), policies, nil, "", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Len())
}

func TestMergeSkipsOrgPolicyAssets(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
	}
	policies := []PolicyRecord{
		{
			Resource:  "//orgpolicy.googleapis.com/projects/123/policies/compute.disableSerialPortAccess",
			AssetType: "orgpolicy.googleapis.com/Policy",
			Bindings:  []Binding{{Role: "roles/owner", Members: []string{"serviceAccount:sa1@proj.iam.gserviceaccount.com"}}},
		},
	}

	report, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)
	assert.Zero(t, report.Len())
}

func TestMergeRepeatIdentityAcrossResources(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
	}
	policies := []PolicyRecord{
		projectPolicy("roles/owner", "serviceAccount:sa1@proj.iam.gserviceaccount.com"),
		{
			Resource:  "//storage.googleapis.com/projects/_/buckets/logs-bucket",
			AssetType: "storage.googleapis.com/Bucket",
			Bindings:  []Binding{{Role: "roles/storage.admin", Members: []string{"serviceAccount:sa1@proj.iam.gserviceaccount.com"}}},
		},
	}

	report, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "owner_Project_(123);storage.admin_Bucket_(logs-bucket)", rows[0][3])
}

func TestMergeDoesNotDeduplicateRepeatedGrants(t *testing.T) {
	// The same (role, resource) pair granted through two binding entries
	// is reported twice: the report is an audit trail, not a set.
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
	}
	policies := []PolicyRecord{
		{
			Resource:  "//cloudresourcemanager.googleapis.com/projects/123",
			AssetType: "cloudresourcemanager.googleapis.com/Project",
			Bindings: []Binding{
				{Role: "roles/owner", Members: []string{"serviceAccount:sa1@proj.iam.gserviceaccount.com"}},
				{Role: "roles/owner", Members: []string{"serviceAccount:sa1@proj.iam.gserviceaccount.com"}},
			},
		},
	}

	report, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "owner_Project_(123);owner_Project_(123)", rows[0][3])
}

func TestMergeUserWithoutOrgID(t *testing.T) {
	policies := []PolicyRecord{projectPolicy("roles/viewer", "user:alice@example.com")}

	report, err := Merge(context.Background(), policies, nil, "", nil)
	require.NoError(t, err)

	rows := report.Rows()
	require.Len(t, rows, 1)
	// Without an org id the user's email doubles as the unique id.
	assert.Equal(t, []string{"alice", "alice", "alice@example.com", "viewer_Project_(123)", "alice@example.com", "a123456"}, rows[0])
}

func TestMergeUserExpandedOncePerRun(t *testing.T) {
	expander := newFakeExpander()
	expander.grants["alice@example.com"] = []GrantDetail{
		{Role: "roles/viewer", ResourceType: "projects", ResourceName: "123"},
		{Role: "roles/editor", ResourceType: "projects", ResourceName: "456", GroupID: "devs@example.com"},
	}
	policies := []PolicyRecord{
		projectPolicy("roles/viewer", "user:alice@example.com"),
		{
			Resource:  "//cloudresourcemanager.googleapis.com/projects/456",
			AssetType: "cloudresourcemanager.googleapis.com/Project",
			Bindings:  []Binding{{Role: "roles/editor", Members: []string{"user:alice@example.com"}}},
		},
	}

	report, err := Merge(context.Background(), policies, nil, "9876", expander)
	require.NoError(t, err)

	assert.Equal(t, 1, expander.calls["alice@example.com"])
	rows := report.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "viewer_projects_(123);editor_projects_(456)_group_(devs@example.com)", rows[0][3])
	assert.Equal(t, "alice@example.com", rows[0][2])
}

func TestMergeExpanderFailureAborts(t *testing.T) {
	expander := newFakeExpander()
	expander.err = errors.New("analysis quota exceeded")
	policies := []PolicyRecord{projectPolicy("roles/viewer", "user:alice@example.com")}

	report, err := Merge(context.Background(), policies, nil, "9876", expander)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestMergeIdempotent(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
		{Email: "sa2@proj.iam.gserviceaccount.com", UniqueID: "5678"},
	}
	policies := []PolicyRecord{
		projectPolicy("roles/owner",
			"serviceAccount:sa1@proj.iam.gserviceaccount.com",
			"serviceAccount:sa2@proj.iam.gserviceaccount.com",
			"allUsers"),
		{
			Resource:  "//storage.googleapis.com/projects/_/buckets/logs-bucket",
			AssetType: "storage.googleapis.com/Bucket",
			Bindings:  []Binding{{Role: "roles/storage.objectViewer", Members: []string{"serviceAccount:sa2@proj.iam.gserviceaccount.com"}}},
		},
	}

	first, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)
	second, err := Merge(context.Background(), policies, directory, "", nil)
	require.NoError(t, err)

	assert.Equal(t, first.Rows(), second.Rows())
}

func TestMergeEntitlementSetInvariantUnderResourceOrder(t *testing.T) {
	directory := []ServiceAccountRecord{
		{Email: "sa1@proj.iam.gserviceaccount.com", UniqueID: "1234"},
	}
	bucketPolicy := PolicyRecord{
		Resource:  "//storage.googleapis.com/projects/_/buckets/logs-bucket",
		AssetType: "storage.googleapis.com/Bucket",
		Bindings:  []Binding{{Role: "roles/storage.admin", Members: []string{"serviceAccount:sa1@proj.iam.gserviceaccount.com"}}},
	}
	forward := []PolicyRecord{projectPolicy("roles/owner", "serviceAccount:sa1@proj.iam.gserviceaccount.com"), bucketPolicy}
	reversed := []PolicyRecord{bucketPolicy, projectPolicy("roles/owner", "serviceAccount:sa1@proj.iam.gserviceaccount.com")}

	a, err := Merge(context.Background(), forward, directory, "", nil)
	require.NoError(t, err)
	b, err := Merge(context.Background(), reversed, directory, "", nil)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		a.Get("sa1@proj.iam.gserviceaccount.com").Entitlements,
		b.Get("sa1@proj.iam.gserviceaccount.com").Entitlements)
}

func TestFormatEntitlementRoundTrip(t *testing.T) {
	got := FormatEntitlement("roles/storage.objectViewer", "storage.googleapis.com/Bucket", "//storage.googleapis.com/projects/_/buckets/logs-bucket")
	assert.Equal(t, "storage.objectViewer_Bucket_(logs-bucket)", got)

	// Unprefixed custom roles pass through untouched.
	got = FormatEntitlement("organizations/9876/roles/customAuditor", "cloudresourcemanager.googleapis.com/Project", "//cloudresourcemanager.googleapis.com/projects/123")
	assert.Equal(t, "organizations/9876/roles/customAuditor_Project_(123)", got)
}

func TestFormatGrant(t *testing.T) {
	assert.Equal(t, "viewer_projects_(123)", FormatGrant(GrantDetail{
		Role: "roles/viewer", ResourceType: "projects", ResourceName: "123",
	}))
	assert.Equal(t, "viewer_projects_(123)_group_(devs@example.com)", FormatGrant(GrantDetail{
		Role: "roles/viewer", ResourceType: "projects", ResourceName: "123", GroupID: "devs@example.com",
	}))
}
