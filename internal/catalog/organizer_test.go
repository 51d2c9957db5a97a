package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/gis-catalog/internal/scanning"
)

var _ = Describe("BuildPlan", func() {
	It("should route records into category subdirectories", func() {
		records := []*ScanRecord{
			{ID: "a", Path: "/data/roads.shp", Name: "roads.shp", Type: scanning.TypeShapefile, Category: "transportation"},
			{ID: "b", Path: "/data/misc.geojson", Name: "misc.geojson", Type: scanning.TypeGeoJSON, Category: "unclassified"},
		}
		plan := BuildPlan(records, "/organized")
		Expect(plan).To(HaveLen(2))
		Expect(plan[0].Dest).To(Equal("/organized/transportation/roads.shp"))
		Expect(plan[1].Dest).To(Equal("/organized/unclassified/misc.geojson"))
	})

	It("should treat an empty category as unclassified", func() {
		records := []*ScanRecord{
			{ID: "a", Path: "/data/notes.txt", Name: "notes.txt", Type: scanning.TypeUnknown},
		}
		plan := BuildPlan(records, "/organized")
		Expect(plan).To(HaveLen(1))
		Expect(plan[0].Dest).To(Equal("/organized/unclassified/notes.txt"))
	})

	It("should skip records already at their destination", func() {
		records := []*ScanRecord{
			{ID: "a", Path: "/organized/transportation/roads.shp", Name: "roads.shp", Category: "transportation"},
		}
		Expect(BuildPlan(records, "/organized")).To(BeEmpty())
	})
})

var _ = Describe("sidecarsFor", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	touch := func(name string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte("x"), 0644)).To(Succeed())
		return path
	}

	It("should list the sidecar files that exist", func() {
		path := touch("parcels.shp")
		touch("parcels.shx")
		touch("parcels.dbf")
		touch("parcels.prj")

		record := &ScanRecord{Path: path, Type: scanning.TypeShapefile}
		sidecars := sidecarsFor(record)
		Expect(sidecars).To(ConsistOf(
			filepath.Join(dir, "parcels.shx"),
			filepath.Join(dir, "parcels.dbf"),
			filepath.Join(dir, "parcels.prj"),
		))
	})

	It("should return nothing for non-shapefile records", func() {
		path := touch("parcels.geojson")
		touch("parcels.prj")
		record := &ScanRecord{Path: path, Type: scanning.TypeGeoJSON}
		Expect(sidecarsFor(record)).To(BeEmpty())
	})
})

var _ = Describe("Organize", func() {
	var (
		db      *mockDB
		service *Service
		source  string
		target  string
		now     time.Time
	)

	BeforeEach(func() {
		db = newMockDB()
		source = GinkgoT().TempDir()
		target = GinkgoT().TempDir()
		now = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)
		rules, err := scanning.NewRuleSet(scanning.DefaultRules())
		Expect(err).NotTo(HaveOccurred())
		service = NewServiceWithDeps(db, &mockScanner{}, rules, &seqIDGenerator{}, &stubTimeSource{now: now})
	})

	write := func(name string) string {
		path := filepath.Join(source, name)
		Expect(os.WriteFile(path, []byte("content of "+name), 0644)).To(Succeed())
		return path
	}

	When("records point at real files", func() {
		BeforeEach(func() {
			shpPath := write("highways.shp")
			write("highways.shx")
			write("highways.dbf")
			geojsonPath := write("misc.geojson")

			Expect(db.UpsertRecord(&ScanRecord{
				ID: "shp-1", Path: shpPath, Name: "highways.shp",
				Type: scanning.TypeShapefile, Category: "transportation",
			})).To(Succeed())
			Expect(db.UpsertRecord(&ScanRecord{
				ID: "geo-1", Path: geojsonPath, Name: "misc.geojson",
				Type: scanning.TypeGeoJSON, Category: "unclassified",
			})).To(Succeed())
		})

		It("should move each file into its category directory", func() {
			result, err := service.Organize(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Moved).To(Equal(2))
			Expect(result.Failed).To(BeZero())

			Expect(filepath.Join(target, "transportation", "highways.shp")).To(BeAnExistingFile())
			Expect(filepath.Join(target, "unclassified", "misc.geojson")).To(BeAnExistingFile())
			Expect(filepath.Join(source, "highways.shp")).NotTo(BeAnExistingFile())
		})

		It("should carry shapefile sidecars along", func() {
			_, err := service.Organize(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(target, "transportation", "highways.shx")).To(BeAnExistingFile())
			Expect(filepath.Join(target, "transportation", "highways.dbf")).To(BeAnExistingFile())
			Expect(filepath.Join(source, "highways.shx")).NotTo(BeAnExistingFile())
		})

		It("should rewrite the stored paths", func() {
			_, err := service.Organize(target)
			Expect(err).NotTo(HaveOccurred())

			record, err := db.GetRecord("shp-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(record.Path).To(Equal(filepath.Join(target, "transportation", "highways.shp")))
			Expect(record.UpdatedAt).To(Equal(now))

			_, err = db.GetRecordByPath(filepath.Join(target, "transportation", "highways.shp"))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("a record points at a missing file", func() {
		BeforeEach(func() {
			goodPath := write("rivers.geojson")
			Expect(db.UpsertRecord(&ScanRecord{
				ID: "good", Path: goodPath, Name: "rivers.geojson",
				Type: scanning.TypeGeoJSON, Category: "hydrography",
			})).To(Succeed())
			Expect(db.UpsertRecord(&ScanRecord{
				ID: "gone", Path: filepath.Join(source, "deleted.geojson"), Name: "deleted.geojson",
				Type: scanning.TypeGeoJSON, Category: "unclassified",
			})).To(Succeed())
		})

		It("should report the failure and keep going", func() {
			result, err := service.Organize(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Moved).To(Equal(1))
			Expect(result.Failed).To(Equal(1))
			Expect(result.Operations).To(HaveLen(2))

			Expect(filepath.Join(target, "hydrography", "rivers.geojson")).To(BeAnExistingFile())

			var failed *OperationResult
			for i := range result.Operations {
				if result.Operations[i].Error != "" {
					failed = &result.Operations[i]
				}
			}
			Expect(failed).NotTo(BeNil())
			Expect(failed.RecordID).To(Equal("gone"))
		})
	})

	When("the store cannot be listed", func() {
		It("should fail", func() {
			db.listErr = fmt.Errorf("corrupt bucket")
			_, err := service.Organize(target)
			Expect(err).To(MatchError(ContainSubstring("listing records")))
		})
	})
})
