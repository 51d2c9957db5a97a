package scanning

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("kmlExtractor", func() {
	var (
		dir       string
		extractor kmlExtractor
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	When("the document holds several placemarks", func() {
		const doc = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Trailhead</name>
      <Point><coordinates>-122.08,37.42,0</coordinates></Point>
    </Placemark>
    <Placemark>
      <name>Trail</name>
      <LineString>
        <coordinates>
          -122.08,37.42,0
          -122.05,37.45,0
          -122.01,37.44,0
        </coordinates>
      </LineString>
    </Placemark>
  </Document>
</kml>`

		It("should count placemarks", func() {
			meta, err := extractor.Extract(write("trail.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.FeatureCount).To(HaveValue(Equal(2)))
		})

		It("should take the first geometry element", func() {
			meta, err := extractor.Extract(write("trail.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.GeometryType).To(Equal("Point"))
		})

		It("should always report WGS 84", func() {
			meta, err := extractor.Extract(write("trail.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.CRS).To(Equal("EPSG:4326"))
		})

		It("should fold every coordinates block into the bounds", func() {
			meta, err := extractor.Extract(write("trail.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Bounds).NotTo(BeNil())
			Expect(meta.Bounds.MinX).To(Equal(-122.08))
			Expect(meta.Bounds.MaxX).To(Equal(-122.01))
			Expect(meta.Bounds.MinY).To(Equal(37.42))
			Expect(meta.Bounds.MaxY).To(Equal(37.45))
		})
	})

	When("the document is empty of placemarks", func() {
		It("should report zero features and no bounds", func() {
			doc := `<kml xmlns="http://www.opengis.net/kml/2.2"><Document/></kml>`
			meta, err := extractor.Extract(write("empty.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.FeatureCount).To(HaveValue(Equal(0)))
			Expect(meta.GeometryType).To(BeEmpty())
			Expect(meta.Bounds).To(BeNil())
		})
	})

	When("coordinates hold malformed tuples", func() {
		It("should skip them and keep the valid ones", func() {
			doc := `<kml><Placemark><Point><coordinates>bad,tuple 5 1.5,2.5</coordinates></Point></Placemark></kml>`
			meta, err := extractor.Extract(write("messy.kml", doc))
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Bounds).NotTo(BeNil())
			Expect(meta.Bounds.MinX).To(Equal(1.5))
			Expect(meta.Bounds.MinY).To(Equal(2.5))
		})
	})

	When("the root element is not kml", func() {
		It("should fail", func() {
			doc := `<html><body>not a map</body></html>`
			_, err := extractor.Extract(write("page.kml", doc))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not a kml document"))
		})
	})

	When("the file holds no XML at all", func() {
		It("should fail", func() {
			_, err := extractor.Extract(write("blank.kml", ""))
			Expect(err).To(HaveOccurred())
		})
	})

	When("the file does not exist", func() {
		It("should fail", func() {
			_, err := extractor.Extract(filepath.Join(dir, "missing.kml"))
			Expect(err).To(HaveOccurred())
		})
	})
})
