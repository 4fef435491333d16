package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"phone", "created_at"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"username": bson.M{
				"bsonType":  "string",
				"maxLength": 80,
			},

			"phone": bson.M{
				"bsonType":  "string",
				"pattern":   `^\+[1-9]\d{1,14}$`,
				"maxLength": 50,
			},

			"country": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
