package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/aitorle/geovault/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	shapeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Shape",
		Fields: graphql.Fields{
			"kind":          &graphql.Field{Type: graphql.String},
			"radius_meters": &graphql.Field{Type: graphql.Float},
			"corners":       &graphql.Field{Type: graphql.NewList(coordinateType)},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zone",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: coordinateType},
			"shape":  &graphql.Field{Type: shapeType},
		},
	})

	vaultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vault",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"device_id":    &graphql.Field{Type: graphql.String},
			"name":         &graphql.Field{Type: graphql.String},
			"zone":         &graphql.Field{Type: zoneType},
			"blocked_apps": &graphql.Field{Type: graphql.NewList(graphql.String)},
			"active":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	eventType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeofenceEvent",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"vault_id":  &graphql.Field{Type: graphql.String},
			"device_id": &graphql.Field{Type: graphql.String},
			"type":      &graphql.Field{Type: graphql.String},
			"location":  &graphql.Field{Type: coordinateType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"vault": &graphql.Field{
				Type:        vaultType,
				Description: "Get a vault by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Vaults.GetByID(p.Context, id)
				},
			},
			"vaultsByDevice": &graphql.Field{
				Type:        graphql.NewList(vaultType),
				Description: "List a device's vaults",
				Args: graphql.FieldConfigArgument{
					"device_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"active":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deviceID := p.Args["device_id"].(string)
					active := p.Args["active"].(bool)
					return deps.Vaults.ListByDevice(p.Context, deviceID, active)
				},
			},
			"vaultsNearby": &graphql.Field{
				Type:        graphql.NewList(vaultType),
				Description: "Find vaults with centers near a location",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Vaults.FindNear(p.Context, lat, lon, radius, limit)
				},
			},
			"membership": &graphql.Field{
				Type:        graphql.NewList(vaultType),
				Description: "Vaults currently containing a device's position",
				Args: graphql.FieldConfigArgument{
					"device_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deviceID := p.Args["device_id"].(string)
					point, err := domain.NewCoordinate(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, err
					}
					return deps.Memberships.Membership(p.Context, deviceID, point)
				},
			},
			"deviceEvents": &graphql.Field{
				Type:        graphql.NewList(eventType),
				Description: "Recent enter/exit events for a device",
				Args: graphql.FieldConfigArgument{
					"device_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					deviceID := p.Args["device_id"].(string)
					limit := p.Args["limit"].(int)
					return deps.Memberships.EventsByDevice(p.Context, deviceID, limit)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
