package repository

import "testing"

func directoryFixture() []CompanySiteStatus {
	return []CompanySiteStatus{
		{CompanyID: 1, CompanyName: "Acme Water", Sites: []SiteStatus{
			{Site: Site{LocationID: 10, SiteName: "North Well", TotalPumps: 3}},
			{Site: Site{LocationID: 11, SiteName: "Spare Lot"}},
		}},
		{CompanyID: 2, CompanyName: "Empty Co", Sites: []SiteStatus{
			{Site: Site{LocationID: 20, SiteName: "Field"}},
		}},
		{CompanyID: 3, CompanyName: "Borehole Ltd", Sites: []SiteStatus{}},
	}
}

func TestFilterSiteDirectory(t *testing.T) {
	tests := []struct {
		name         string
		q            string
		includeEmpty bool
		want         map[int64]int
	}{
		{"drops sites without pumps", "", false, map[int64]int{1: 1}},
		{"include empty keeps everything", "", true, map[int64]int{1: 2, 2: 1, 3: 0}},
		{"matches company name", "  ACME ", false, map[int64]int{1: 1}},
		{"matches site name", "field", true, map[int64]int{2: 1}},
		{"site without pumps is not searchable", "spare", false, map[int64]int{}},
		{"no match", "zzz", true, map[int64]int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterSiteDirectory(directoryFixture(), tc.q, tc.includeEmpty)
			if got == nil {
				t.Fatal("nil result")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("companies = %+v, want %v", got, tc.want)
			}
			for _, c := range got {
				n, ok := tc.want[c.CompanyID]
				if !ok || len(c.Sites) != n {
					t.Fatalf("company %d has %d sites, want %v", c.CompanyID, len(c.Sites), tc.want)
				}
			}
		})
	}
}

func TestFilterSiteDirectoryLeavesInputAlone(t *testing.T) {
	in := directoryFixture()
	FilterSiteDirectory(in, "", false)
	if len(in[0].Sites) != 2 {
		t.Fatalf("input sites = %d", len(in[0].Sites))
	}
}
