package source

import (
	"context"
	"errors"
	"testing"

	"github.com/danielesteban/nyc/internal/adapters/storage"
	"github.com/danielesteban/nyc/internal/domain/model"
	"github.com/danielesteban/nyc/pkg/logger"
	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
	"github.com/spf13/afero"
	. "github.com/smartystreets/goconvey/convey"
)

const collection = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "EPSG:2263"}},
  "features": [
    {"type": "Feature", "id": 1, "properties": {"HEIGHT_ROOF": 30.5},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[10,0],[10,5],[0,5],[0,0]]]}},
    {"type": "Feature", "properties": {"HEIGHT_ROOF": "12"},
     "geometry": {"type": "Polygon", "coordinates": [[[20,20],[25,20],[25,30],[20,20]]]}},
    {"type": "Feature", "properties": {"HEIGHT_ROOF": 0},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
    {"type": "Feature", "properties": {"HEIGHT_ROOF": 8},
     "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}},
    {"type": "Feature", "properties": {"HEIGHT_ROOF": 8}, "geometry": null},
    {"type": "Feature", "properties": {"HEIGHT_ROOF": 8},
     "geometry": {"type": "Polygon", "coordinates": "bogus"}}
  ],
  "trailing": {"ignored": [1, 2, 3]}
}`

func newStorage(files map[string]string) *storage.Storage {
	fs := afero.NewMemMapFs()
	for name, data := range files {
		_ = afero.WriteFile(fs, name, []byte(data), 0o644)
	}
	return storage.New(storage.WithFs(fs))
}

func collect(ctx context.Context, src Source) ([]model.Record, error) {
	var out []model.Record
	err := src.Stream(ctx, func(rec model.Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

func TestGeoJSONStream(t *testing.T) {
	_ = logger.Init()

	Convey("Given a feature collection on disk", t, func() {
		ctx := context.Background()
		st := newStorage(map[string]string{"data/data.geojson": collection})
		src, err := New(st, "data/data.geojson", WithBufferSize(16))
		So(err, ShouldBeNil)

		Convey("When streaming it", func() {
			recs, err := collect(ctx, src)

			Convey("Then every feature becomes a record in order", func() {
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 6)

				So(recs[0].ID, ShouldEqual, "1")
				So(recs[0].Kind, ShouldEqual, model.GeometryPolygon)
				So(recs[0].Height, ShouldEqual, 30.5)
				So(recs[0].Ring, ShouldResemble, orb.Ring{{0, 0}, {10, 0}, {10, 5}, {0, 5}, {0, 0}})

				So(recs[1].Height, ShouldEqual, 12.0)
				So(recs[2].Height, ShouldEqual, 0.0)
				So(recs[3].Kind, ShouldEqual, "LineString")
				So(recs[3].Ring, ShouldBeNil)
				So(recs[4].Kind, ShouldEqual, "")
				So(recs[5].Kind, ShouldEqual, kindInvalid)
			})
		})

		Convey("When emit fails", func() {
			stop := errors.New("stop")
			calls := 0
			err := src.Stream(ctx, func(model.Record) error {
				calls++
				return stop
			})

			Convey("Then the stream stops with that error", func() {
				So(err, ShouldEqual, stop)
				So(calls, ShouldEqual, 1)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := collect(cctx, src)

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a custom height property", t, func() {
		st := newStorage(map[string]string{"b.json": `{"features":[{"type":"Feature","properties":{"roof":4},"geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1]]]}}]}`})
		src, _ := New(st, "b.json", WithHeightProperty("roof"))

		Convey("Then the height is read from it", func() {
			recs, err := collect(context.Background(), src)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 1)
			So(recs[0].Height, ShouldEqual, 4.0)
		})
	})

	Convey("Given broken input", t, func() {
		st := newStorage(map[string]string{
			"truncated.geojson": `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":`,
			"empty.geojson":     ``,
			"array.geojson":     `[1,2,3]`,
		})

		Convey("Then read failures wrap ErrRead", func() {
			for _, name := range []string{"truncated.geojson", "empty.geojson", "array.geojson"} {
				src, _ := New(st, name)
				_, err := collect(context.Background(), src)
				So(errors.Is(err, ErrRead), ShouldBeTrue)
			}
		})

		Convey("Then a missing file wraps ErrOpen", func() {
			src, _ := New(st, "missing.geojson")
			_, err := collect(context.Background(), src)
			So(errors.Is(err, ErrOpen), ShouldBeTrue)
		})
	})
}

func TestFormats(t *testing.T) {
	_ = logger.Init()

	Convey("Given format names", t, func() {
		Convey("Then aliases parse", func() {
			for in, want := range map[string]Format{"": FormatAuto, "GeoJSON": FormatGeoJSON, "json": FormatGeoJSON, "pbf": FormatOSMPBF, "osmpbf": FormatOSMPBF} {
				got, err := ParseFormat(in)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("Then unknown names fail", func() {
			_, err := ParseFormat("shapefile")
			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
		})
	})

	Convey("Given paths", t, func() {
		Convey("Then the extension picks the format unless one is forced", func() {
			So(DetectFormat("new-york.osm.pbf", FormatAuto), ShouldEqual, FormatOSMPBF)
			So(DetectFormat("data/data.geojson", FormatAuto), ShouldEqual, FormatGeoJSON)
			So(DetectFormat("export.bin", FormatOSMPBF), ShouldEqual, FormatOSMPBF)
		})

		Convey("Then New returns the matching source", func() {
			st := newStorage(nil)
			src, err := New(st, "nyc.osm.pbf")
			So(err, ShouldBeNil)
			_, ok := src.(*OSMPBF)
			So(ok, ShouldBeTrue)

			src, err = New(st, "nyc.geojson")
			So(err, ShouldBeNil)
			_, ok = src.(*GeoJSON)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestOSMWays(t *testing.T) {
	Convey("Given indexed nodes", t, func() {
		nodes := map[int64]orb.Point{
			1: {-73.99, 40.75},
			2: {-73.98, 40.75},
			3: {-73.98, 40.76},
			4: {-73.99, 40.76},
		}

		Convey("When a closed building way has a height", func() {
			way := &osmpbf.Way{ID: 42, NodeIDs: []int64{1, 2, 3, 4, 1}, Tags: map[string]string{"building": "yes", "height": "21.5 m"}}
			rec, ok := wayRecord(way, nodes, DefaultLevelHeight)

			Convey("Then it is a polygon record with that height", func() {
				So(ok, ShouldBeTrue)
				So(rec.ID, ShouldEqual, "way/42")
				So(rec.Kind, ShouldEqual, model.GeometryPolygon)
				So(rec.Height, ShouldEqual, 21.5)
				So(len(rec.Ring), ShouldEqual, 5)
				So(rec.Ring[0], ShouldResemble, orb.Point{-73.99, 40.75})
			})
		})

		Convey("When only levels are tagged", func() {
			way := &osmpbf.Way{ID: 7, NodeIDs: []int64{1, 2, 3, 1}, Tags: map[string]string{"building": "residential", "building:levels": "4"}}
			rec, ok := wayRecord(way, nodes, 3.5)

			Convey("Then height is levels times storey height", func() {
				So(ok, ShouldBeTrue)
				So(rec.Height, ShouldEqual, 14.0)
			})
		})

		Convey("When a node is missing", func() {
			way := &osmpbf.Way{ID: 8, NodeIDs: []int64{1, 2, 99, 1}, Tags: map[string]string{"building": "yes", "height": "10"}}
			rec, ok := wayRecord(way, nodes, DefaultLevelHeight)

			Convey("Then the record has no ring", func() {
				So(ok, ShouldBeTrue)
				So(rec.Ring, ShouldBeNil)
			})
		})

		Convey("When the way is open", func() {
			way := &osmpbf.Way{ID: 9, NodeIDs: []int64{1, 2, 3}, Tags: map[string]string{"building": "yes"}}
			rec, _ := wayRecord(way, nodes, DefaultLevelHeight)

			Convey("Then it is not a polygon and has no height", func() {
				So(rec.Kind, ShouldEqual, "LineString")
				So(rec.Height, ShouldEqual, 0.0)
			})
		})

		Convey("When the way is not a building", func() {
			for _, tags := range []map[string]string{{"highway": "primary"}, {"building": "no"}} {
				_, ok := wayRecord(&osmpbf.Way{NodeIDs: []int64{1, 2, 3, 1}, Tags: tags}, nodes, DefaultLevelHeight)
				So(ok, ShouldBeFalse)
			}
		})
	})

	Convey("Given height strings", t, func() {
		cases := []struct {
			in   string
			want float64
			ok   bool
		}{
			{"12", 12, true},
			{" 12.5 ", 12.5, true},
			{"30m", 30, true},
			{"", 0, false},
			{"tall", 0, false},
			{"-3", 0, false},
		}
		for _, tc := range cases {
			got, ok := parseMetres(tc.in)
			So(ok, ShouldEqual, tc.ok)
			So(got, ShouldEqual, tc.want)
		}
	})
}

func TestOSMPBFStream(t *testing.T) {
	_ = logger.Init()

	Convey("Given a file that is not a PBF extract", t, func() {
		st := newStorage(map[string]string{"bad.osm.pbf": "definitely not protobuf"})
		src, _ := New(st, "bad.osm.pbf", WithDecoderProcs(1))

		Convey("Then streaming fails with ErrRead", func() {
			_, err := collect(context.Background(), src)
			So(errors.Is(err, ErrRead), ShouldBeTrue)
		})
	})

	Convey("Given a missing extract", t, func() {
		src, _ := New(newStorage(nil), "missing.osm.pbf")

		Convey("Then streaming fails with ErrOpen", func() {
			_, err := collect(context.Background(), src)
			So(errors.Is(err, ErrOpen), ShouldBeTrue)
		})
	})
}
