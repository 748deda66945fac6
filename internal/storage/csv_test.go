package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"listing-stats/internal/model"
	"listing-stats/internal/storage"
)

func TestListingsCSV(t *testing.T) {
	Convey("Given a listings CSV file", t, func() {
		path := filepath.Join(t.TempDir(), "listings.csv")
		content := strings.Join([]string{
			"id,created_at,offer_type,property_type,price_total,living_area,district,latitude,longitude",
			`a-1,2021-05-04,sale,apartment,3000000,60,"Praha",50.05,14.3`,
			"a-2,2021-06-01,rent,house,15000,100,Brno,,",
		}, "\n") + "\n"
		So(os.WriteFile(path, []byte(content), 0644), ShouldBeNil)

		Convey("The source streams every row in file order", func() {
			src, err := storage.OpenListingsCSV(path)
			So(err, ShouldBeNil)
			defer src.Close()

			var rows []model.Listing
			for src.Next() {
				rows = append(rows, src.Listing())
			}
			So(src.Err(), ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			So(rows[0].ID, ShouldEqual, "a-1")
			So(rows[0].District, ShouldEqual, "Praha")
			So(rows[0].Latitude, ShouldEqual, "50.05")

			So(rows[1].ID, ShouldEqual, "a-2")
			So(rows[1].OfferType, ShouldEqual, "rent")
			So(rows[1].Latitude, ShouldBeEmpty)
		})

		Convey("A file missing a required column is rejected at open", func() {
			bad := filepath.Join(t.TempDir(), "bad.csv")
			So(os.WriteFile(bad, []byte("id,price_total\n1,100\n"), 0644), ShouldBeNil)

			_, err := storage.OpenListingsCSV(bad)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing column")
		})
	})
}

func TestLoadRegionsCSV(t *testing.T) {
	Convey("Given a region reference CSV", t, func() {
		path := filepath.Join(t.TempDir(), "regions.csv")
		content := "district,region\nPraha,Hlavní město Praha\nKladno,Středočeský kraj\n"
		So(os.WriteFile(path, []byte(content), 0644), ShouldBeNil)

		Convey("All rows load", func() {
			refs, err := storage.LoadRegionsCSV(path)
			So(err, ShouldBeNil)
			So(refs, ShouldHaveLength, 2)
			So(refs[0].District, ShouldEqual, "Praha")
			So(refs[1].Region, ShouldEqual, "Středočeský kraj")
		})
	})
}

func TestCSVSink(t *testing.T) {
	Convey("Given aggregate rows to materialize", t, func() {
		regionLabel := "PRAHA"
		rows := []model.AggregateRow{
			{
				Year:               2021,
				OfferType:          model.OfferSale,
				PropertyType:       model.PropertyApartment,
				MeanPricePerArea:   decimal.NewFromInt(50000),
				MedianPricePerArea: decimal.NewFromInt(50000),
				RowCount:           1,
			},
			{
				Year:               2021,
				Region:             &regionLabel,
				OfferType:          model.OfferRent,
				PropertyType:       model.PropertyHouse,
				MeanPricePerArea:   decimal.RequireFromString("250.5"),
				MedianPricePerArea: decimal.NewFromInt(250),
				RowCount:           4,
			},
		}

		path := filepath.Join(t.TempDir(), "out", "aggregates.csv")
		sink := &storage.CSVSink{Path: path}

		Convey("The sink writes a header plus one line per group in order", func() {
			So(sink.Write(context.Background(), rows), ShouldBeNil)

			data, err := os.ReadFile(path)
			So(err, ShouldBeNil)

			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldEqual, "year,region,offer_type,property_type,mean_price_per_area,median_price_per_area,row_count")
			So(lines[1], ShouldEqual, "2021,,sale,apartment,50000,50000,1")
			So(lines[2], ShouldEqual, "2021,PRAHA,rent,house,250.5,250,4")
		})
	})
}
