package normalize_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"listing-stats/internal/model"
	"listing-stats/internal/normalize"
)

func TestDistrictKey(t *testing.T) {
	Convey("Given the district key normalization", t, func() {
		Convey("It collapses whitespace around hyphens and lowercases", func() {
			So(normalize.DistrictKey(" Ostrava  -  město "), ShouldEqual, "ostrava-město")
			So(normalize.DistrictKey("ostrava-město"), ShouldEqual, "ostrava-město")
			So(normalize.DistrictKey("OSTRAVA - MĚSTO"), ShouldEqual, "ostrava-město")
		})

		Convey("It collapses internal whitespace runs to single spaces", func() {
			So(normalize.DistrictKey("  Mladá    Boleslav  "), ShouldEqual, "mladá boleslav")
		})

		Convey("It is idempotent", func() {
			inputs := []string{
				" Ostrava  -  město ",
				"Hradec   Králové",
				"praha-východ",
				"",
				"  ",
				"Brno - venkov",
			}
			for _, in := range inputs {
				once := normalize.DistrictKey(in)
				So(normalize.DistrictKey(once), ShouldEqual, once)
			}
		})
	})
}

func TestDistrictExceptions(t *testing.T) {
	Convey("Given the fixed district exception table", t, func() {
		Convey("The capital's full name maps to its short form", func() {
			So(normalize.District("Hlavní město Praha"), ShouldEqual, "Praha")
		})

		Convey("Matching is case-insensitive and trims whitespace", func() {
			So(normalize.District("hlavní město praha"), ShouldEqual, "Praha")
			So(normalize.District("  Ostrava  "), ShouldEqual, "Ostrava-město")
			So(normalize.District("OSTRAVA"), ShouldEqual, "Ostrava-město")
		})

		Convey("Unmatched districts pass through trimmed", func() {
			So(normalize.District(" Brno "), ShouldEqual, "Brno")
			So(normalize.District("Ostrava-město"), ShouldEqual, "Ostrava-město")
		})
	})
}

func TestNumericCoercion(t *testing.T) {
	Convey("Given the tolerant numeric coercion", t, func() {
		Convey("Empty string, lone dot and garbage all become nil", func() {
			So(normalize.Decimal(""), ShouldBeNil)
			So(normalize.Decimal("."), ShouldBeNil)
			So(normalize.Decimal("abc"), ShouldBeNil)
			So(normalize.Decimal("12a"), ShouldBeNil)
		})

		Convey("Valid numerics keep their fractional precision", func() {
			d := normalize.Decimal("123.5")
			So(d, ShouldNotBeNil)
			So(d.String(), ShouldEqual, "123.5")

			d = normalize.Decimal(" 42 ")
			So(d, ShouldNotBeNil)
			So(d.String(), ShouldEqual, "42")
		})

		Convey("Coordinates follow the same policy", func() {
			So(normalize.Float(""), ShouldBeNil)
			So(normalize.Float("."), ShouldBeNil)
			So(normalize.Float("north"), ShouldBeNil)

			f := normalize.Float("50.08")
			So(f, ShouldNotBeNil)
			So(*f, ShouldEqual, 50.08)
		})
	})
}

func TestYear(t *testing.T) {
	Convey("Given the year extraction", t, func() {
		Convey("It accepts the export's timestamp layouts", func() {
			for _, raw := range []string{
				"2019-03-01T10:00:00Z",
				"2019-03-01 10:00:00",
				"2019-03-01",
			} {
				y := normalize.Year(raw)
				So(y, ShouldNotBeNil)
				So(*y, ShouldEqual, 2019)
			}
		})

		Convey("Unparseable timestamps degrade to nil", func() {
			So(normalize.Year(""), ShouldBeNil)
			So(normalize.Year("yesterday"), ShouldBeNil)
			So(normalize.Year("03/01/2019"), ShouldBeNil)
		})
	})
}

func TestListing(t *testing.T) {
	Convey("Given a raw listing", t, func() {
		raw := model.Listing{
			ID:           "abc-1",
			CreatedAt:    "2021-07-15 09:30:00",
			OfferType:    " Sale ",
			PropertyType: "APARTMENT",
			PriceTotal:   "3000000",
			LivingArea:   "60.5",
			District:     " Hlavní město Praha ",
			Latitude:     "50.08",
			Longitude:    "14.43",
		}

		Convey("When normalized", func() {
			nl := normalize.Listing(raw)

			Convey("All derived fields are populated", func() {
				So(nl.Year, ShouldNotBeNil)
				So(*nl.Year, ShouldEqual, 2021)
				So(nl.OfferType, ShouldEqual, model.OfferSale)
				So(nl.PropertyType, ShouldEqual, model.PropertyApartment)
				So(nl.DistrictRaw, ShouldEqual, "Praha")
				So(nl.DistrictKey, ShouldEqual, "praha")
				So(nl.PriceTotal.String(), ShouldEqual, "3000000")
				So(nl.LivingArea.String(), ShouldEqual, "60.5")
				So(*nl.Latitude, ShouldEqual, 50.08)
				So(*nl.Longitude, ShouldEqual, 14.43)
			})

			Convey("The raw row is carried along untouched", func() {
				So(nl.Raw, ShouldResemble, raw)
			})
		})

		Convey("When numeric fields fail to parse they become nil, never an error", func() {
			raw.PriceTotal = "on request"
			raw.LivingArea = "."
			raw.CreatedAt = "unknown"
			nl := normalize.Listing(raw)

			So(nl.PriceTotal, ShouldBeNil)
			So(nl.LivingArea, ShouldBeNil)
			So(nl.Year, ShouldBeNil)
		})
	})
}
