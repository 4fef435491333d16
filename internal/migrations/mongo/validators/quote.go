package validators

import "go.mongodb.org/mongo-driver/bson"

var QuoteValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"user_id",
			"car_info",
			"notification",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"car_info": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 2000,
			},

			"condition": bson.M{
				"bsonType":  "string",
				"maxLength": 20,
			},

			"color": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"displacement": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"year": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{1,4}$`,
			},

			"fuel": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"notification": bson.M{
				"bsonType": "object",
				"required": []string{"status"},
				"properties": bson.M{
					"status": bson.M{
						"bsonType": "string",
						"enum": []string{
							"pending",
							"disabled",
							"sent",
							"failed",
							"delivered",
							"read",
						},
					},
					"message_id": bson.M{
						"bsonType": "string",
					},
					"error": bson.M{
						"bsonType": "string",
					},
					"updated_at": bson.M{
						"bsonType": "date",
					},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
