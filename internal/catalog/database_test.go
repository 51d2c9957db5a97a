package catalog

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/gis-catalog/internal/scanning"
)

var _ = Describe("BoltDB", func() {
	var db *BoltDB

	BeforeEach(func() {
		var err error
		db, err = NewBoltDB(filepath.Join(GinkgoT().TempDir(), "catalog.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("UpsertRecord", func() {
		It("should store and retrieve a record by ID", func() {
			record := &ScanRecord{
				ID:        "rec-1",
				Path:      "/data/roads.shp",
				Name:      "roads.shp",
				Type:      scanning.TypeShapefile,
				SizeBytes: 1024,
				Category:  "transportation",
				CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			}
			Expect(db.UpsertRecord(record)).To(Succeed())

			got, err := db.GetRecord("rec-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Path).To(Equal("/data/roads.shp"))
			Expect(got.Type).To(Equal(scanning.TypeShapefile))
			Expect(got.Category).To(Equal("transportation"))
		})

		It("should retrieve a record by path", func() {
			Expect(db.UpsertRecord(&ScanRecord{ID: "rec-1", Path: "/data/roads.shp"})).To(Succeed())

			got, err := db.GetRecordByPath("/data/roads.shp")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("rec-1"))
		})

		It("should round-trip optional metadata fields", func() {
			count := 7
			Expect(db.UpsertRecord(&ScanRecord{
				ID:           "rec-1",
				Path:         "/data/zones.geojson",
				FeatureCount: &count,
				BoundingBox:  &scanning.BoundingBox{MinX: -1, MinY: -2, MaxX: 3, MaxY: 4},
			})).To(Succeed())

			got, err := db.GetRecord("rec-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.FeatureCount).To(HaveValue(Equal(7)))
			Expect(got.BoundingBox.MinX).To(Equal(-1.0))
			Expect(got.BoundingBox.MaxY).To(Equal(4.0))
			Expect(got.BandCount).To(BeNil())
		})

		When("a record for the path already exists", func() {
			created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

			BeforeEach(func() {
				Expect(db.UpsertRecord(&ScanRecord{
					ID: "original", Path: "/data/roads.shp", SizeBytes: 100, CreatedAt: created,
				})).To(Succeed())
			})

			It("should keep the original ID and CreatedAt", func() {
				Expect(db.UpsertRecord(&ScanRecord{
					ID: "replacement", Path: "/data/roads.shp", SizeBytes: 200,
					CreatedAt: created.Add(time.Hour),
				})).To(Succeed())

				got, err := db.GetRecordByPath("/data/roads.shp")
				Expect(err).NotTo(HaveOccurred())
				Expect(got.ID).To(Equal("original"))
				Expect(got.CreatedAt).To(Equal(created))
				Expect(got.SizeBytes).To(Equal(int64(200)))
			})

			It("should not accumulate duplicates", func() {
				Expect(db.UpsertRecord(&ScanRecord{ID: "replacement", Path: "/data/roads.shp"})).To(Succeed())
				records, err := db.ListRecords()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))
			})
		})
	})

	Describe("GetRecord", func() {
		It("should fail for an unknown ID", func() {
			_, err := db.GetRecord("nope")
			Expect(err).To(MatchError(ContainSubstring("record not found")))
		})
	})

	Describe("GetRecordByPath", func() {
		It("should fail for an unknown path", func() {
			_, err := db.GetRecordByPath("/nowhere")
			Expect(err).To(MatchError(ContainSubstring("record not found")))
		})
	})

	Describe("ListRecords", func() {
		It("should return an empty list on a fresh database", func() {
			records, err := db.ListRecords()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})

		It("should return every stored record", func() {
			Expect(db.UpsertRecord(&ScanRecord{ID: "a", Path: "/d/a"})).To(Succeed())
			Expect(db.UpsertRecord(&ScanRecord{ID: "b", Path: "/d/b"})).To(Succeed())
			records, err := db.ListRecords()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
		})
	})

	Describe("DeleteRecord", func() {
		BeforeEach(func() {
			Expect(db.UpsertRecord(&ScanRecord{ID: "rec-1", Path: "/data/roads.shp"})).To(Succeed())
		})

		It("should remove the record and its path entry", func() {
			Expect(db.DeleteRecord("rec-1")).To(Succeed())

			_, err := db.GetRecord("rec-1")
			Expect(err).To(HaveOccurred())
			_, err = db.GetRecordByPath("/data/roads.shp")
			Expect(err).To(HaveOccurred())
		})

		It("should free the path for a fresh record", func() {
			Expect(db.DeleteRecord("rec-1")).To(Succeed())
			Expect(db.UpsertRecord(&ScanRecord{ID: "rec-2", Path: "/data/roads.shp"})).To(Succeed())

			got, err := db.GetRecordByPath("/data/roads.shp")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("rec-2"))
		})

		It("should fail for an unknown ID", func() {
			Expect(db.DeleteRecord("nope")).To(MatchError(ContainSubstring("record not found")))
		})
	})

	Describe("scan runs", func() {
		It("should round-trip a run", func() {
			run := &ScanRun{
				ID:        "run-1",
				Root:      "/data",
				Recursive: true,
				StartedAt: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
				FileCount: 12,
			}
			Expect(db.SaveRun(run)).To(Succeed())

			got, err := db.GetRun("run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Root).To(Equal("/data"))
			Expect(got.FileCount).To(Equal(12))
			Expect(got.Recursive).To(BeTrue())
		})

		It("should list every run", func() {
			Expect(db.SaveRun(&ScanRun{ID: "run-1"})).To(Succeed())
			Expect(db.SaveRun(&ScanRun{ID: "run-2"})).To(Succeed())
			runs, err := db.ListRuns()
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
		})

		It("should fail for an unknown run", func() {
			_, err := db.GetRun("nope")
			Expect(err).To(MatchError(ContainSubstring("scan run not found")))
		})
	})
})
