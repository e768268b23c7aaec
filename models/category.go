package models

type Category string

const (
	CategoryConference Category = "conference"
	CategoryWorkshop   Category = "workshop"
	CategorySeminar    Category = "seminar"
	CategoryMeetup     Category = "meetup"
	CategoryConcert    Category = "concert"
	CategoryFestival   Category = "festival"
	CategorySports     Category = "sports"
	CategoryExhibition Category = "exhibition"
	CategoryNetworking Category = "networking"
	CategoryOther      Category = "other"
)

var Categories = []Category{
	CategoryConference,
	CategoryWorkshop,
	CategorySeminar,
	CategoryMeetup,
	CategoryConcert,
	CategoryFestival,
	CategorySports,
	CategoryExhibition,
	CategoryNetworking,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
